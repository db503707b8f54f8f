package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadrelay/leadrelay/internal/auth"
	"github.com/leadrelay/leadrelay/internal/model"
	"github.com/leadrelay/leadrelay/internal/repository"
)

// APITokenHandler manages back-office API tokens.
type APITokenHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewAPITokenHandler creates a new APITokenHandler.
func NewAPITokenHandler(repo *repository.Repository, logger *slog.Logger) *APITokenHandler {
	return &APITokenHandler{repo: repo, logger: logger}
}

type createTokenRequest struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

// Create handles POST /api/v1/api-tokens.
// The plaintext token appears in this response only.
func (h *APITokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "name is required")
		return
	}
	if req.Scope != model.ScopeRead && req.Scope != model.ScopeAdmin {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "scope must be read or admin")
		return
	}

	generated, err := auth.GenerateToken()
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate token")
		return
	}

	token := &model.APIToken{
		Name:      req.Name,
		Prefix:    generated.Prefix,
		TokenHash: generated.Hash,
		Scope:     req.Scope,
	}

	if err := h.repo.CreateAPIToken(r.Context(), token); err != nil {
		h.logger.Error("failed to store token", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to store token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":     generated.Plaintext,
		"api_token": token,
	})
}

// Revoke handles DELETE /api/v1/api-tokens/{id}.
func (h *APITokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.RevokeAPIToken(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			writeError(w, http.StatusNotFound, "TOKEN_NOT_FOUND", "token not found")
			return
		}
		h.logger.Error("failed to revoke token", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to revoke token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
