package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	state   interfaces.StateStorage
	chat    interfaces.ChatStorage
	segment interfaces.SegmentStorage
	kv      interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		state:   NewStateStorage(db, logger),
		chat:    NewChatStorage(db, logger),
		segment: NewSegmentStorage(db, logger),
		kv:      NewKVStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// StateStorage returns the State storage interface
func (m *Manager) StateStorage() interfaces.StateStorage {
	return m.state
}

// ChatStorage returns the Chat storage interface
func (m *Manager) ChatStorage() interfaces.ChatStorage {
	return m.chat
}

// SegmentStorage returns the Segment storage interface
func (m *Manager) SegmentStorage() interfaces.SegmentStorage {
	return m.segment
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
