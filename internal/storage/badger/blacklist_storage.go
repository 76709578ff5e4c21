package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/memoria/internal/interfaces"
)

const blacklistSnapshotKey = "blacklist_snapshot"

// blacklistSnapshot is the single persisted blacklist record
type blacklistSnapshot struct {
	Key       string `badgerhold:"key"`
	URLs      []string
	UpdatedAt time.Time
}

// BlacklistStorage implements the BlacklistStorage interface for Badger
type BlacklistStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBlacklistStorage creates a new BlacklistStorage instance
func NewBlacklistStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BlacklistStorage {
	return &BlacklistStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot replaces the stored snapshot
func (s *BlacklistStorage) SaveSnapshot(ctx context.Context, urls []string) error {
	snapshot := blacklistSnapshot{
		Key:       blacklistSnapshotKey,
		URLs:      urls,
		UpdatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(blacklistSnapshotKey, &snapshot); err != nil {
		return fmt.Errorf("failed to save blacklist snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, or an empty slice if none
func (s *BlacklistStorage) LoadSnapshot(ctx context.Context) ([]string, error) {
	var snapshot blacklistSnapshot
	err := s.db.Store().Get(blacklistSnapshotKey, &snapshot)
	if err == badgerhold.ErrNotFound {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist snapshot: %w", err)
	}
	return snapshot.URLs, nil
}
