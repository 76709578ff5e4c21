package interfaces

import (
	"context"

	"github.com/ternarybob/memoria/internal/models"
)

// SearchOptions configures one adapter search attempt
type SearchOptions struct {
	// UseQuotes wraps the query in quotes for exact-phrase backends
	UseQuotes bool

	// IncludeYear appends the event year to the query string
	IncludeYear bool

	// StrictMatch selects the strict match-evaluator policy
	StrictMatch bool
}

// ImageSource is a single backend integration translating a free-text query
// into at most one candidate image.
//
// A backend failure (non-2xx, network error, malformed response) and an
// empty result list are equivalent: both return (nil, nil). Adapters never
// surface transport errors to the cascade.
type ImageSource interface {
	// Name returns the stable adapter identifier used in cascade policy
	// tables and search traces (e.g. "wikipedia", "commons").
	Name() string

	// Search runs one free-text search and resolves the first candidate
	// accepted by the match evaluator to a direct image URL.
	// Returns (nil, nil) when no acceptable candidate exists.
	Search(ctx context.Context, query string, year int, opts SearchOptions) (*models.ImageCandidate, error)
}
