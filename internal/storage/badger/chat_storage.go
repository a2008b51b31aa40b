package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// chatRecord is the persisted row for one chat turn. The key combines the
// session identifier and the turn timestamp so keys are unique and ordered.
type chatRecord struct {
	Key       string `badgerhold:"key"`
	SessionID string `badgerhold:"index"`
	Turn      models.ChatTurn
}

// ChatStorage implements the ChatStorage interface for Badger
type ChatStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChatStorage creates a new ChatStorage instance
func NewChatStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChatStorage {
	return &ChatStorage{
		db:     db,
		logger: logger,
	}
}

// SaveTurn appends a turn to its session.
func (s *ChatStorage) SaveTurn(ctx context.Context, turn *models.ChatTurn) error {
	if turn == nil || turn.SessionID == "" {
		return fmt.Errorf("chat turn must have a session identifier")
	}

	record := chatRecord{
		Key:       fmt.Sprintf("%s/%020d", turn.SessionID, turn.Timestamp.UnixNano()),
		SessionID: turn.SessionID,
		Turn:      *turn,
	}

	if err := s.db.Store().Upsert(record.Key, &record); err != nil {
		return fmt.Errorf("failed to save chat turn: %w", err)
	}

	return nil
}

// LoadHistory returns the session's turns in chronological order.
func (s *ChatStorage) LoadHistory(ctx context.Context, sessionID string) ([]*models.ChatTurn, error) {
	var records []chatRecord
	query := badgerhold.Where("SessionID").Eq(sessionID).Index("SessionID").SortBy("Key")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	turns := make([]*models.ChatTurn, 0, len(records))
	for i := range records {
		turn := records[i].Turn
		turns = append(turns, &turn)
	}

	return turns, nil
}
