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

// KPIHandler manages performer goals.
type KPIHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewKPIHandler creates a new KPIHandler.
func NewKPIHandler(repo *repository.Repository, logger *slog.Logger) *KPIHandler {
	return &KPIHandler{repo: repo, logger: logger}
}

type kpiRequest struct {
	DailyGoal  int `json:"daily_goal"`
	WeeklyGoal int `json:"weekly_goal"`
}

// Get handles GET /api/v1/kpi/{telegram_id}.
func (h *KPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegram_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "invalid telegram_id")
		return
	}

	kpi, err := h.repo.GetKPI(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrKPINotFound) {
			writeError(w, http.StatusNotFound, "KPI_NOT_FOUND", "no KPI set for user")
			return
		}
		h.logger.Error("failed to get kpi", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get kpi")
		return
	}

	writeJSON(w, http.StatusOK, kpi)
}

// Put handles PUT /api/v1/kpi/{telegram_id}.
func (h *KPIHandler) Put(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "telegram_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "invalid telegram_id")
		return
	}

	var req kpiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if req.DailyGoal < 0 || req.WeeklyGoal < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "goals must be non-negative")
		return
	}

	kpi := &model.KPI{
		TelegramID: telegramID,
		DailyGoal:  req.DailyGoal,
		WeeklyGoal: req.WeeklyGoal,
	}

	if err := h.repo.UpsertKPI(r.Context(), kpi); err != nil {
		h.logger.Error("failed to upsert kpi", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to save kpi")
		return
	}

	writeJSON(w, http.StatusOK, kpi)
}
