package interfaces

import (
	"context"

	"github.com/ternarybob/memoria/internal/models"
)

// ResolverService resolves one SearchQuery to an ImageResult by cascading
// across source adapters. Resolve never returns an error to callers: every
// failure mode collapses to a result with no image, and the search trace
// records what was attempted.
type ResolverService interface {
	Resolve(ctx context.Context, query *models.SearchQuery) *models.ImageResult
}

// SchedulerService converts a possibly growing stream of search queries into
// bounded-parallel resolution with live progress.
type SchedulerService interface {
	// Enqueue adds queries not already dispatched; ids seen before are
	// silently ignored. Safe to call repeatedly with overlapping sets.
	Enqueue(queries []*models.SearchQuery)

	// Reset clears the queue, the dedup set, and counters. In-flight
	// resolutions are cancelled; late results are discarded.
	Reset()

	// Progress state. Eventually SearchedCount equals the number of unique
	// submitted queries once the pump drains.
	IsSearching() bool
	SearchedCount() int
	FoundCount() int
	QueueLength() int
}
