package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadrelay/leadrelay/internal/model"
	"github.com/leadrelay/leadrelay/internal/repository"
	"github.com/leadrelay/leadrelay/internal/service"
)

// RuleHandler manages routing rules.
type RuleHandler struct {
	repo      *repository.Repository
	directory *service.DirectoryService
	logger    *slog.Logger
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(repo *repository.Repository, directory *service.DirectoryService, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{repo: repo, directory: directory, logger: logger}
}

type ruleRequest struct {
	UserID   int64   `json:"user_id"`
	Offer    *string `json:"offer"`
	Country  *string `json:"country"`
	Source   *string `json:"source"`
	Priority int     `json:"priority"`
	IsActive *bool   `json:"is_active"`
}

// List handles GET /api/v1/rules.
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.ListRules(r.Context())
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

// Create handles POST /api/v1/rules.
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "user_id is required")
		return
	}

	rule := &model.RoutingRule{
		UserID:   req.UserID,
		Offer:    req.Offer,
		Country:  req.Country,
		Source:   req.Source,
		Priority: req.Priority,
		IsActive: req.IsActive == nil || *req.IsActive,
	}

	if err := h.repo.CreateRule(r.Context(), rule); err != nil {
		h.logger.Error("failed to create rule", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create rule")
		return
	}

	h.directory.InvalidateRules(r.Context())
	writeJSON(w, http.StatusCreated, rule)
}

// Delete handles DELETE /api/v1/rules/{id}.
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "RULE_NOT_FOUND", "rule not found")
			return
		}
		h.logger.Error("failed to delete rule", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete rule")
		return
	}

	h.directory.InvalidateRules(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
