package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	out := models.FeatureFlagList{Flags: make([]models.FeatureFlag, 0, len(flags))}
	for _, f := range flags {
		item := models.FeatureFlag{Key: f.Key, Value: f.Value}
		if !f.UpdatedAt.IsZero() {
			ts := models.Timestamp(f.UpdatedAt)
			item.UpdatedAt = &ts
		}
		out.Flags = append(out.Flags, item)
	}

	response.JSON(w, r, http.StatusOK, out)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input models.FeatureFlagsUpsertRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if len(input.Flags) == 0 {
		response.BadRequest(w, r, "validation failed", fieldError("flags", "at least one flag is required", "required"))
		return
	}

	flags := make([]*featureflags.Flag, 0, len(input.Flags))
	for _, f := range input.Flags {
		flags = append(flags, &featureflags.Flag{Key: f.Key, Value: f.Value})
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		if errors.Is(err, featureflags.ErrInvalidFlag) {
			response.BadRequest(w, r, "every flag needs a key and a value", nil)
			return
		}
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.NoContent(w, r)
}

// ResetFeatureFlag handles DELETE /v1/admin/feature-flags/{key} - restore the default value.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	err := h.service.ResetFlag(r.Context(), key)
	switch {
	case err == nil:
		response.NoContent(w, r)
	case errors.Is(err, featureflags.ErrFlagNotFound):
		response.NotFound(w, r, "no override stored for "+key)
	case errors.Is(err, featureflags.ErrInvalidFlag):
		response.BadRequest(w, r, "flag key is required", nil)
	default:
		writeServiceError(w, r, h.logger, err)
	}
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
