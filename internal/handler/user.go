package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadrelay/leadrelay/internal/model"
	"github.com/leadrelay/leadrelay/internal/repository"
)

// UserHandler manages back-office users.
type UserHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(repo *repository.Repository, logger *slog.Logger) *UserHandler {
	return &UserHandler{repo: repo, logger: logger}
}

type userRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	TeamID     *int64 `json:"team_id"`
	IsActive   *bool  `json:"is_active"`
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	if req.TelegramID == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "telegram_id is required")
		return
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "unknown role")
		return
	}

	user := &model.User{
		TelegramID: req.TelegramID,
		Username:   req.Username,
		FullName:   req.FullName,
		Role:       role,
		TeamID:     req.TeamID,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}

	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeError(w, http.StatusConflict, "USER_EXISTS", "user already exists")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Update handles PATCH /api/v1/users/{telegram_id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegram_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "invalid telegram_id")
		return
	}

	user, err := h.repo.GetUser(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get user")
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Role != "" {
		role := model.Role(req.Role)
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "INVALID_FIELD", "unknown role")
			return
		}
		user.Role = role
	}
	if req.TeamID != nil {
		user.TeamID = req.TeamID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.repo.UpdateUser(r.Context(), user); err != nil {
		h.logger.Error("failed to update user", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{telegram_id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegram_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "invalid telegram_id")
		return
	}

	if err := h.repo.DeleteUser(r.Context(), telegramID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("failed to delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
