package interfaces

import (
	"context"

	"github.com/calibrae/mercator/internal/models"
)

// StateStorage persists analysis states. Saves are upserts by state
// identifier: re-saving overwrites the prior row, so retried stages and
// resumed runs never create duplicates.
type StateStorage interface {
	// SaveState upserts the state snapshot by its identifier and refreshes
	// the row's creation timestamp.
	SaveState(ctx context.Context, state *models.AnalysisState) error

	// LoadState returns the most recently saved snapshot for the identifier.
	LoadState(ctx context.Context, id string) (*models.AnalysisState, error)

	// ListStates returns summaries of the owner's states, newest first.
	ListStates(ctx context.Context, userID string, limit int) ([]*models.StateSummary, error)
}

// ChatStorage persists chat turns. Turns are append-only and scoped to a
// session.
type ChatStorage interface {
	SaveTurn(ctx context.Context, turn *models.ChatTurn) error
	LoadHistory(ctx context.Context, sessionID string) ([]*models.ChatTurn, error)
}

// SegmentStorage persists customer segments keyed by the producing state so
// they can be queried independently of the full state snapshot.
type SegmentStorage interface {
	SaveSegments(ctx context.Context, stateID string, segments []models.CustomerSegment) error
	GetSegments(ctx context.Context, stateID string) ([]models.CustomerSegment, error)
}

// KeyValueStorage provides generic key/value access, used for per-owner API
// key storage.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StorageManager aggregates the typed stores backed by one database.
type StorageManager interface {
	StateStorage() StateStorage
	ChatStorage() ChatStorage
	SegmentStorage() SegmentStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
