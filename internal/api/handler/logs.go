package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/dailylog"
)

// LogHandler handles daily log endpoints.
type LogHandler struct {
	logService *dailylog.Service
	logger     zerolog.Logger
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(logService *dailylog.Service, logger zerolog.Logger) *LogHandler {
	return &LogHandler{logService: logService, logger: logger}
}

// GetToday handles GET /v1/me/logs/today - today's log, created on first read.
func (h *LogHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	l, err := h.logService.GetOrCreateToday(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toDailyLog(l))
}

// GetByDate handles GET /v1/me/logs/{date} - an existing log.
func (h *LogHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	date := chi.URLParam(r, "date")
	if date == h.logService.Today() {
		h.GetToday(w, r)
		return
	}

	l, err := h.logService.GetByDate(r.Context(), userID, date)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toDailyLog(l))
}

// AddEntry handles POST /v1/me/logs/today/entries - log a food.
func (h *LogHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.AddEntryRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.FoodID == "" {
		response.BadRequest(w, r, "validation failed", fieldError("foodId", "required", "required"))
		return
	}

	l, err := h.logService.AddEntry(r.Context(), userID, dailylog.AddEntryInput{
		FoodID:   input.FoodID,
		Quantity: input.Quantity,
		Unit:     input.Unit,
		LoggedAt: timePtr(input.LoggedAt),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/me/logs/today", toDailyLog(l))
}

// UpdateEntry handles PUT /v1/me/logs/today/entries/{entryId}.
func (h *LogHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.UpdateEntryRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	l, err := h.logService.UpdateEntry(r.Context(), userID, chi.URLParam(r, "entryId"), dailylog.UpdateEntryInput{
		Quantity: input.Quantity,
		LoggedAt: timePtr(input.LoggedAt),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toDailyLog(l))
}

// RemoveEntry handles DELETE /v1/me/logs/today/entries/{entryId}. Removing an
// unknown entry succeeds.
func (h *LogHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.logService.RemoveEntry(r.Context(), userID, chi.URLParam(r, "entryId")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.NoContent(w, r)
}

// AdjustWater handles POST /v1/me/logs/today/water.
func (h *LogHandler) AdjustWater(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.WaterRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.DeltaMl == nil {
		response.BadRequest(w, r, "validation failed", fieldError("deltaMl", "required", "required"))
		return
	}

	l, err := h.logService.AdjustWater(r.Context(), userID, *input.DeltaMl)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toDailyLog(l))
}

// CategoryTotals handles GET /v1/me/logs/today/categories.
func (h *LogHandler) CategoryTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	totals, err := h.logService.CategoryTotals(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toCategoryTotals(h.logService.Today(), totals))
}

// History handles GET /v1/me/history?days=N. A missing or non-numeric days
// falls back to the default window.
func (h *LogHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		days = dailylog.DefaultHistoryDays
	}

	summaries, err := h.logService.History(r.Context(), userID, days)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toHistory(summaries))
}

func timePtr(ts *models.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time()
	return &t
}
