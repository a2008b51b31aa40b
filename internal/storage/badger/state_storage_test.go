package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir := t.TempDir()
	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestStateStorage_SaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewStateStorage(db, logger)
	ctx := context.Background()

	state, err := models.NewAnalysisState("state_abc12345", "AI Software", "ai coding tools", "", "user-1")
	require.NoError(t, err)
	state.Trends = []models.Trend{{Name: "LLM agents", EstimatedImpact: "High"}}

	require.NoError(t, storage.SaveState(ctx, state))

	loaded, err := storage.LoadState(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, loaded.ID)
	assert.Equal(t, "AI Software", loaded.MarketDomain)
	assert.Equal(t, "ai coding tools", loaded.Query)
	require.Len(t, loaded.Trends, 1)
	assert.Equal(t, "LLM agents", loaded.Trends[0].Name)
}

func TestStateStorage_SaveOverwrites(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewStateStorage(db, logger)
	ctx := context.Background()

	state, err := models.NewAnalysisState("state_dup00001", "Fintech", "", "", "user-1")
	require.NoError(t, err)
	require.NoError(t, storage.SaveState(ctx, state))

	state.Answer = "Answer after retry"
	require.NoError(t, storage.SaveState(ctx, state))

	loaded, err := storage.LoadState(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, "Answer after retry", loaded.Answer)

	summaries, err := storage.ListStates(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, summaries, 1, "re-saving a state must not create duplicate rows")
}

func TestStateStorage_LoadMissing(t *testing.T) {
	db := newTestDB(t)
	storage := NewStateStorage(db, arbor.NewLogger())

	_, err := storage.LoadState(context.Background(), "state_missing0")
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)
}

func TestStateStorage_ListOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	storage := NewStateStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for _, id := range []string{"state_one00001", "state_two00002", "state_three003"} {
		state, err := models.NewAnalysisState(id, "Healthcare", "", "", "user-2")
		require.NoError(t, err)
		require.NoError(t, storage.SaveState(ctx, state))
		time.Sleep(2 * time.Millisecond)
	}

	otherUser, err := models.NewAnalysisState("state_other004", "Healthcare", "", "", "user-3")
	require.NoError(t, err)
	require.NoError(t, storage.SaveState(ctx, otherUser))

	summaries, err := storage.ListStates(ctx, "user-2", 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "state_three003", summaries[0].StateID, "newest state should come first")
	assert.Equal(t, "state_two00002", summaries[1].StateID)
}

func TestSegmentStorage_SaveReplacesPrior(t *testing.T) {
	db := newTestDB(t)
	storage := NewSegmentStorage(db, arbor.NewLogger())
	ctx := context.Background()

	first := []models.CustomerSegment{
		{Name: "Enterprise", Percentage: 35},
		{Name: "SMB", Percentage: 45},
	}
	require.NoError(t, storage.SaveSegments(ctx, "state_seg00001", first))

	second := []models.CustomerSegment{{Name: "Startups", Percentage: 20}}
	require.NoError(t, storage.SaveSegments(ctx, "state_seg00001", second))

	segments, err := storage.GetSegments(ctx, "state_seg00001")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "Startups", segments[0].Name)
	assert.Equal(t, "state_seg00001", segments[0].StateID)
	assert.NotEmpty(t, segments[0].ID)
}

func TestChatStorage_HistoryOrdered(t *testing.T) {
	db := newTestDB(t)
	storage := NewChatStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().UTC()
	turns := []*models.ChatTurn{
		{SessionID: "sess-1", Role: models.ChatRoleUser, Content: "first", Timestamp: base},
		{SessionID: "sess-1", Role: models.ChatRoleAssistant, Content: "second", Timestamp: base.Add(time.Second)},
		{SessionID: "sess-1", Role: models.ChatRoleUser, Content: "third", Timestamp: base.Add(2 * time.Second)},
	}
	for _, turn := range turns {
		require.NoError(t, storage.SaveTurn(ctx, turn))
	}
	require.NoError(t, storage.SaveTurn(ctx, &models.ChatTurn{
		SessionID: "sess-2", Role: models.ChatRoleUser, Content: "other session", Timestamp: base,
	}))

	history, err := storage.LoadHistory(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
	assert.Equal(t, "third", history[2].Content)
}

func TestKVStorage_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewKVStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "ApiKey/User-1/Tavily", "secret"))

	// Keys are case-insensitive.
	value, err := storage.Get(ctx, "apikey/user-1/tavily")
	require.NoError(t, err)
	assert.Equal(t, "secret", value)

	require.NoError(t, storage.Delete(ctx, "apikey/user-1/tavily"))
	_, err = storage.Get(ctx, "apikey/user-1/tavily")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}
