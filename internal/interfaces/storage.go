package interfaces

import (
	"context"

	"github.com/ternarybob/memoria/internal/models"
)

// TraceStorage persists per-event search traces for the debug view
type TraceStorage interface {
	// SaveResult stores the final result (including its trace) for an event,
	// replacing any previous resolution of the same event
	SaveResult(ctx context.Context, result *models.ImageResult) error

	// GetResult returns the stored result for an event, or nil if the event
	// has not been resolved
	GetResult(ctx context.Context, eventID string) (*models.ImageResult, error)
}

// BlacklistStorage persists the local blacklist snapshot between restarts
type BlacklistStorage interface {
	// SaveSnapshot replaces the stored snapshot
	SaveSnapshot(ctx context.Context, urls []string) error

	// LoadSnapshot returns the stored snapshot, or an empty slice if none
	LoadSnapshot(ctx context.Context) ([]string, error)
}

// StorageManager provides access to all storage backends
type StorageManager interface {
	TraceStorage() TraceStorage
	BlacklistStorage() BlacklistStorage
	Close() error
}
