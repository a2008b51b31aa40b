package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// categoryDescriptions maps download categories to human-readable labels.
var categoryDescriptions = map[string]string{
	"raw_data_json":          "Raw data sources (JSON)",
	"raw_data_csv":           "Raw data sources (CSV)",
	"trends_json":            "Identified market trends",
	"opportunities_json":     "Market opportunities",
	"strategies_json":        "Strategic recommendations",
	"customer_insights_json": "Customer segment analysis",
	"final_report":           "Complete market intelligence report",
	"report_html":            "Report rendered as HTML",
	"report_pdf":             "Report summary (PDF)",
	"readme":                 "Report overview",
}

// DownloadHandler serves artifacts produced by analysis runs. Files are only
// served from within the configured reports directory.
type DownloadHandler struct {
	states     interfaces.StateStorage
	reportsDir string
	logger     arbor.ILogger
}

// NewDownloadHandler creates a new download handler rooted at reportsDir
func NewDownloadHandler(states interfaces.StateStorage, reportsDir string, logger arbor.ILogger) *DownloadHandler {
	return &DownloadHandler{
		states:     states,
		reportsDir: reportsDir,
		logger:     logger,
	}
}

// DownloadRoutesHandler dispatches /api/download/{state_id} and
// /api/download/{state_id}/{category}
func (h *DownloadHandler) DownloadRoutesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/download/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		h.listDownloads(w, r, parts[0])
	case len(parts) == 2:
		h.serveDownload(w, r, parts[0], parts[1])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (h *DownloadHandler) listDownloads(w http.ResponseWriter, r *http.Request, stateID string) {
	state, err := h.loadState(w, r, stateID)
	if state == nil || err != nil {
		return
	}

	files := make([]models.DownloadFile, 0, len(state.DownloadFiles))
	for category, path := range state.DownloadFiles {
		files = append(files, models.DownloadFile{
			Category:    category,
			Filename:    filepath.Base(path),
			Description: categoryDescriptions[category],
		})
	}

	WriteJSON(w, http.StatusOK, models.DownloadInfo{
		StateID:      state.ID,
		Query:        state.Query,
		MarketDomain: state.MarketDomain,
		CreatedAt:    state.CreatedAt.Format(time.RFC3339),
		Files:        files,
	})
}

func (h *DownloadHandler) serveDownload(w http.ResponseWriter, r *http.Request, stateID, category string) {
	state, err := h.loadState(w, r, stateID)
	if state == nil || err != nil {
		return
	}

	path, ok := state.DownloadFiles[category]
	if !ok {
		WriteError(w, http.StatusNotFound, "No file for category")
		return
	}

	resolved, err := h.containedPath(path)
	if err != nil {
		h.logger.Warn().Err(err).Str("path", path).Str("category", category).Msg("Download path rejected")
		WriteError(w, http.StatusForbidden, "File not available")
		return
	}

	if _, err := os.Stat(resolved); err != nil {
		WriteError(w, http.StatusNotFound, "File no longer exists")
		return
	}

	h.logger.Debug().Str("state_id", stateID).Str("category", category).Msg("Serving download")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(resolved)+"\"")
	http.ServeFile(w, r, resolved)
}

// containedPath resolves a stored artifact path and verifies it stays inside
// the reports directory.
func (h *DownloadHandler) containedPath(path string) (string, error) {
	base, err := filepath.Abs(h.reportsDir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes reports directory")
	}
	return resolved, nil
}

func (h *DownloadHandler) loadState(w http.ResponseWriter, r *http.Request, stateID string) (*models.AnalysisState, error) {
	state, err := h.states.LoadState(r.Context(), stateID)
	if err != nil {
		if errors.Is(err, interfaces.ErrStateNotFound) {
			WriteError(w, http.StatusNotFound, "State not found")
			return nil, err
		}
		h.logger.Error().Err(err).Str("state_id", stateID).Msg("Failed to load state")
		WriteError(w, http.StatusInternalServerError, "Failed to load state")
		return nil, err
	}
	return state, nil
}
