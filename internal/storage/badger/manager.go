package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	trace     interfaces.TraceStorage
	blacklist interfaces.BlacklistStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		trace:     NewTraceStorage(db, logger),
		blacklist: NewBlacklistStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// TraceStorage returns the search trace storage interface
func (m *Manager) TraceStorage() interfaces.TraceStorage {
	return m.trace
}

// BlacklistStorage returns the blacklist snapshot storage interface
func (m *Manager) BlacklistStorage() interfaces.BlacklistStorage {
	return m.blacklist
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
