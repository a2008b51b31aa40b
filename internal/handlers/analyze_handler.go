package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/calibrae/mercator/internal/models"
)

// AnalysisRunner runs a full market analysis for one request.
type AnalysisRunner interface {
	Run(ctx context.Context, query, marketDomain, question, userID string) *models.PipelineResult
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Query        string `json:"query" validate:"omitempty,min=3"`
	MarketDomain string `json:"market_domain" validate:"required"`
	Question     string `json:"question"`
	UserID       string `json:"user_id"`
}

// AnalyzeHandler handles analysis run HTTP requests
type AnalyzeHandler struct {
	runner   AnalysisRunner
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(runner AnalysisRunner, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		runner:   runner,
		validate: validator.New(),
		logger:   logger,
	}
}

// AnalyzeHandler handles POST /api/analyze - runs the full analysis workflow
func (h *AnalyzeHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode analyze request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Invalid analyze request")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info().
		Str("query", req.Query).
		Str("domain", req.MarketDomain).
		Str("user_id", req.UserID).
		Msg("Processing analysis request")

	result := h.runner.Run(r.Context(), req.Query, req.MarketDomain, req.Question, req.UserID)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, result)
}
