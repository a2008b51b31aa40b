package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

type stubRunner struct {
	result *models.PipelineResult
	query  string
	domain string
}

func (s *stubRunner) Run(ctx context.Context, query, marketDomain, question, userID string) *models.PipelineResult {
	s.query = query
	s.domain = marketDomain
	return s.result
}

func TestAnalyzeHandler(t *testing.T) {
	runner := &stubRunner{result: &models.PipelineResult{StateID: "state_1", Success: true}}
	h := NewAnalyzeHandler(runner, arbor.NewLogger())

	body := `{"query": "solar adoption", "market_domain": "Renewable Energy"}`
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "solar adoption", runner.query)
	assert.Equal(t, "Renewable Energy", runner.domain)

	var result models.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "state_1", result.StateID)
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	h := NewAnalyzeHandler(&stubRunner{}, arbor.NewLogger())

	// Missing market_domain fails validation.
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(`{"query": "solar"}`))
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong method is rejected.
	req = httptest.NewRequest("GET", "/api/analyze", nil)
	rec = httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeHandlerFailureStatus(t *testing.T) {
	runner := &stubRunner{result: &models.PipelineResult{StateID: "state_1", Success: false, Error: "boom"}}
	h := NewAnalyzeHandler(runner, arbor.NewLogger())

	body := `{"market_domain": "Renewable Energy"}`
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AnalyzeHandler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type stubChat struct {
	response string
	history  []*models.ChatTurn
	session  string
}

func (s *stubChat) Respond(ctx context.Context, sessionID, ownerID, message string) (string, error) {
	s.session = sessionID
	return s.response, nil
}

func (s *stubChat) History(ctx context.Context, sessionID string) ([]*models.ChatTurn, error) {
	return s.history, nil
}

func TestChatHandlerAssignsSession(t *testing.T) {
	chat := &stubChat{response: "hello"}
	h := NewChatHandler(chat, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message": "hi"}`))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hello", resp["response"])
	assert.NotEmpty(t, resp["session_id"])
	assert.Equal(t, resp["session_id"], chat.session)
}

func TestChatHandlerRequiresMessage(t *testing.T) {
	h := NewChatHandler(&stubChat{}, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type memoryStates struct {
	states map[string]*models.AnalysisState
}

func (m *memoryStates) SaveState(ctx context.Context, state *models.AnalysisState) error {
	if m.states == nil {
		m.states = map[string]*models.AnalysisState{}
	}
	m.states[state.ID] = state
	return nil
}

func (m *memoryStates) LoadState(ctx context.Context, stateID string) (*models.AnalysisState, error) {
	state, ok := m.states[stateID]
	if !ok {
		return nil, interfaces.ErrStateNotFound
	}
	return state, nil
}

func (m *memoryStates) ListStates(ctx context.Context, userID string, limit int) ([]*models.StateSummary, error) {
	var out []*models.StateSummary
	for _, s := range m.states {
		if s.UserID == userID {
			out = append(out, &models.StateSummary{StateID: s.ID, MarketDomain: s.MarketDomain, Query: s.Query, UserID: s.UserID})
		}
	}
	return out, nil
}

type memorySegments struct {
	segments map[string][]models.CustomerSegment
}

func (m *memorySegments) SaveSegments(ctx context.Context, stateID string, segments []models.CustomerSegment) error {
	if m.segments == nil {
		m.segments = map[string][]models.CustomerSegment{}
	}
	m.segments[stateID] = segments
	return nil
}

func (m *memorySegments) GetSegments(ctx context.Context, stateID string) ([]models.CustomerSegment, error) {
	return m.segments[stateID], nil
}

func TestStateHandlerRoutes(t *testing.T) {
	states := &memoryStates{states: map[string]*models.AnalysisState{
		"state_1": {ID: "state_1", UserID: "user-1", MarketDomain: "Renewable Energy"},
	}}
	segments := &memorySegments{segments: map[string][]models.CustomerSegment{
		"state_1": {{Name: "Enterprise"}},
	}}
	h := NewStateHandler(states, segments, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/states?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	h.ListStatesHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Count)

	req = httptest.NewRequest("GET", "/api/states/state_1", nil)
	rec = httptest.NewRecorder()
	h.StateRoutesHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var state models.AnalysisState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "Renewable Energy", state.MarketDomain)

	req = httptest.NewRequest("GET", "/api/states/state_1/insights", nil)
	rec = httptest.NewRecorder()
	h.StateRoutesHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enterprise")

	req = httptest.NewRequest("GET", "/api/states/missing", nil)
	rec = httptest.NewRecorder()
	h.StateRoutesHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadHandlerServesContainedFile(t *testing.T) {
	reportsDir := t.TempDir()
	runDir := filepath.Join(reportsDir, "run_1")
	require.NoError(t, os.MkdirAll(runDir, 0755))
	reportPath := filepath.Join(runDir, "market_intelligence_report.md")
	require.NoError(t, os.WriteFile(reportPath, []byte("# Report"), 0644))

	states := &memoryStates{states: map[string]*models.AnalysisState{
		"state_1": {
			ID:            "state_1",
			DownloadFiles: map[string]string{"final_report": reportPath},
		},
	}}
	h := NewDownloadHandler(states, reportsDir, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/download/state_1/final_report", nil)
	rec := httptest.NewRecorder()
	h.DownloadRoutesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Report", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "market_intelligence_report.md")
}

func TestDownloadHandlerRejectsEscapingPath(t *testing.T) {
	reportsDir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	states := &memoryStates{states: map[string]*models.AnalysisState{
		"state_1": {
			ID:            "state_1",
			DownloadFiles: map[string]string{"final_report": outside},
		},
	}}
	h := NewDownloadHandler(states, reportsDir, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/download/state_1/final_report", nil)
	rec := httptest.NewRecorder()
	h.DownloadRoutesHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadHandlerListsFiles(t *testing.T) {
	reportsDir := t.TempDir()
	states := &memoryStates{states: map[string]*models.AnalysisState{
		"state_1": {
			ID:            "state_1",
			MarketDomain:  "Renewable Energy",
			DownloadFiles: map[string]string{"final_report": filepath.Join(reportsDir, "r", "report.md")},
		},
	}}
	h := NewDownloadHandler(states, reportsDir, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/download/state_1", nil)
	rec := httptest.NewRecorder()
	h.DownloadRoutesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var info models.DownloadInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Len(t, info.Files, 1)
	assert.Equal(t, "final_report", info.Files[0].Category)
	assert.Equal(t, "report.md", info.Files[0].Filename)
}

type memoryKV struct {
	values map[string]string
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func TestKeyHandlerStoresAndDeletes(t *testing.T) {
	kv := &memoryKV{}
	h := NewKeyHandler(kv, arbor.NewLogger())

	body := `{"user_id": "user-1", "service": "tavily", "api_key": "tv-123"}`
	req := httptest.NewRequest("POST", "/api/keys", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SetKeyHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tv-123", kv.values["apikey/user-1/tavily"])

	req = httptest.NewRequest("DELETE", "/api/keys/tavily?user_id=user-1", nil)
	rec = httptest.NewRecorder()
	h.DeleteKeyHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, kv.values, "apikey/user-1/tavily")
}

func TestKeyHandlerRejectsUnknownService(t *testing.T) {
	h := NewKeyHandler(&memoryKV{}, arbor.NewLogger())

	body := `{"user_id": "user-1", "service": "unknown", "api_key": "x"}`
	req := httptest.NewRequest("POST", "/api/keys", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SetKeyHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
