package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/user"
)

// MeHandler handles user account endpoints.
type MeHandler struct {
	userService *user.Service
	logger      zerolog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(userService *user.Service, logger zerolog.Logger) *MeHandler {
	return &MeHandler{userService: userService, logger: logger}
}

// GetMe handles GET /v1/me - get the caller's profile and targets.
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toMe(u))
}

// UpsertMe handles PUT /v1/me - create or replace the caller's profile.
func (h *MeHandler) UpsertMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	u, err := h.userService.UpsertProfile(r.Context(), userID, toProfileInput(input))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toMe(u))
}

// DeleteMe handles DELETE /v1/me - delete the caller's account.
func (h *MeHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.NoContent(w, r)
}
