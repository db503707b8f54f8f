package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/leadrelay/leadrelay/internal/repository"
)

// ConversionHandler serves the conversion log.
type ConversionHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(repo *repository.Repository, logger *slog.Logger) *ConversionHandler {
	return &ConversionHandler{repo: repo, logger: logger}
}

// List handles GET /api/v1/conversions?limit=N.
func (h *ConversionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	events, err := h.repo.ListRecentConversions(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list conversions", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list conversions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversions": events})
}
