package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mark1-ai/internal/domain"
)

// maxRequestBody bounds the /api/search request body.
const maxRequestBody = 1 << 20 // 1 MB

type searchRequest struct {
	Query string `json:"query"`
	Model string `json:"model,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Handler serves the JSON API backed by the orchestrator.
type Handler struct {
	orchestrator Orchestrator
	logger       *slog.Logger
}

// Orchestrator is the slice of the usecase layer the gateway needs.
type Orchestrator interface {
	Handle(ctx context.Context, query, requestedModel string) (*domain.ResponseEnvelope, error)
	Models() []domain.ModelDescriptor
}

// NewHandler creates the API handler.
func NewHandler(orchestrator Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// handleSearch serves POST /api/search.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Query parameter is required"})
		return
	}

	envelope, err := h.orchestrator.Handle(r.Context(), req.Query, req.Model)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Query parameter is required"})
			return
		}
		h.logger.Error("search request failed",
			"request_id", domain.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, failureResponse{
			Success: false,
			Error:   "Search failed",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope)
}

// handleModels serves GET /api/models from the static catalog.
func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.Models())
}

// handleHealth serves GET /api/health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
