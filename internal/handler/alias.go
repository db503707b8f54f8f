package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leadrelay/leadrelay/internal/model"
	"github.com/leadrelay/leadrelay/internal/repository"
	"github.com/leadrelay/leadrelay/internal/service"
)

// AliasHandler manages campaign-prefix aliases.
type AliasHandler struct {
	repo      *repository.Repository
	directory *service.DirectoryService
	logger    *slog.Logger
}

// NewAliasHandler creates a new AliasHandler.
func NewAliasHandler(repo *repository.Repository, directory *service.DirectoryService, logger *slog.Logger) *AliasHandler {
	return &AliasHandler{repo: repo, directory: directory, logger: logger}
}

type aliasRequest struct {
	Key     string `json:"key"`
	BuyerID *int64 `json:"buyer_id"`
	LeadID  *int64 `json:"lead_id"`
}

// List handles GET /api/v1/aliases.
func (h *AliasHandler) List(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.repo.ListAliases(r.Context())
	if err != nil {
		h.logger.Error("failed to list aliases", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list aliases")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aliases": aliases})
}

// Create handles POST /api/v1/aliases.
func (h *AliasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	key := strings.ToLower(strings.TrimSpace(req.Key))
	if key == "" {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "key is required")
		return
	}
	if req.BuyerID == nil && req.LeadID == nil {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "buyer_id or lead_id is required")
		return
	}

	alias := &model.Alias{
		Key:     key,
		BuyerID: req.BuyerID,
		LeadID:  req.LeadID,
	}

	if err := h.repo.CreateAlias(r.Context(), alias); err != nil {
		if errors.Is(err, repository.ErrAliasExists) {
			writeError(w, http.StatusConflict, "ALIAS_EXISTS", "alias key already exists")
			return
		}
		h.logger.Error("failed to create alias", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create alias")
		return
	}

	h.directory.InvalidateAlias(r.Context(), alias.Key)
	writeJSON(w, http.StatusCreated, alias)
}

// Delete handles DELETE /api/v1/aliases/{id}.
func (h *AliasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Find the key first so the cache entry can be dropped too.
	aliases, err := h.repo.ListAliases(r.Context())
	if err != nil {
		h.logger.Error("failed to list aliases", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete alias")
		return
	}
	var key string
	for _, alias := range aliases {
		if alias.ID == id {
			key = alias.Key
			break
		}
	}

	if err := h.repo.DeleteAlias(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			writeError(w, http.StatusNotFound, "ALIAS_NOT_FOUND", "alias not found")
			return
		}
		h.logger.Error("failed to delete alias", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete alias")
		return
	}

	if key != "" {
		h.directory.InvalidateAlias(r.Context(), key)
	}

	w.WriteHeader(http.StatusNoContent)
}
