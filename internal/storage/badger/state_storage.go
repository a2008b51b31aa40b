package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// stateRecord is the persisted row for an analysis state. The full state is
// serialized as JSON; the indexed columns are duplicated for listing queries.
type stateRecord struct {
	ID           string `badgerhold:"key"`
	UserID       string `badgerhold:"index"`
	MarketDomain string
	Query        string
	StateData    []byte
	CreatedAt    time.Time
}

// StateStorage implements the StateStorage interface for Badger
type StateStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewStateStorage creates a new StateStorage instance
func NewStateStorage(db *BadgerDB, logger arbor.ILogger) interfaces.StateStorage {
	return &StateStorage{
		db:     db,
		logger: logger,
	}
}

// SaveState upserts the state snapshot by its identifier. The stored creation
// timestamp is refreshed on every save so listings order by last activity.
func (s *StateStorage) SaveState(ctx context.Context, state *models.AnalysisState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("state must have an identifier")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	record := stateRecord{
		ID:           state.ID,
		UserID:       state.UserID,
		MarketDomain: state.MarketDomain,
		Query:        state.Query,
		StateData:    data,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.db.Store().Upsert(record.ID, &record); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Debug().Str("state_id", state.ID).Msg("State saved")
	return nil
}

// LoadState returns the most recently saved snapshot for the identifier.
func (s *StateStorage) LoadState(ctx context.Context, id string) (*models.AnalysisState, error) {
	var record stateRecord
	err := s.db.Store().Get(id, &record)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state models.AnalysisState
	if err := json.Unmarshal(record.StateData, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize state: %w", err)
	}

	return &state, nil
}

// ListStates returns summaries of the owner's states, newest first.
func (s *StateStorage) ListStates(ctx context.Context, userID string, limit int) ([]*models.StateSummary, error) {
	query := badgerhold.Where("UserID").Eq(userID).Index("UserID").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []stateRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	summaries := make([]*models.StateSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, &models.StateSummary{
			StateID:      record.ID,
			MarketDomain: record.MarketDomain,
			Query:        record.Query,
			UserID:       record.UserID,
			CreatedAt:    record.CreatedAt,
		})
	}

	return summaries, nil
}
