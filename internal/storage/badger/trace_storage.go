package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
)

// traceRecord is the persisted form of a resolved event
type traceRecord struct {
	EventID   string `badgerhold:"key"`
	Result    *models.ImageResult
	UpdatedAt time.Time
}

// TraceStorage implements the TraceStorage interface for Badger
type TraceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTraceStorage creates a new TraceStorage instance
func NewTraceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TraceStorage {
	return &TraceStorage{
		db:     db,
		logger: logger,
	}
}

// SaveResult stores the result for an event, replacing any previous one
func (s *TraceStorage) SaveResult(ctx context.Context, result *models.ImageResult) error {
	if result == nil || result.EventID == "" {
		return fmt.Errorf("result must carry an event id")
	}

	record := traceRecord{
		EventID:   result.EventID,
		Result:    result,
		UpdatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(record.EventID, &record); err != nil {
		return fmt.Errorf("failed to save search trace: %w", err)
	}
	return nil
}

// GetResult returns the stored result for an event, or nil when the event
// has not been resolved
func (s *TraceStorage) GetResult(ctx context.Context, eventID string) (*models.ImageResult, error) {
	var record traceRecord
	err := s.db.Store().Get(eventID, &record)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search trace: %w", err)
	}
	return record.Result, nil
}
