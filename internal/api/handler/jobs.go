package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/clock"
)

// JobPublisher enqueues background jobs for the worker.
type JobPublisher interface {
	PublishSuggestionsRefresh(ctx context.Context, date string) (string, error)
}

// JobsHandler handles admin job triggers.
type JobsHandler struct {
	publisher JobPublisher
	logger    zerolog.Logger
}

// NewJobsHandler creates a new JobsHandler. A nil publisher disables triggers.
func NewJobsHandler(publisher JobPublisher, logger zerolog.Logger) *JobsHandler {
	return &JobsHandler{publisher: publisher, logger: logger}
}

// TriggerSuggestionsRefresh handles POST /v1/admin/jobs/suggestions-refresh.
func (h *JobsHandler) TriggerSuggestionsRefresh(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		response.ServiceUnavailable(w, r, "job queue is not configured")
		return
	}

	var input models.SuggestionsRefreshRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &input) {
		return
	}
	if input.Date != "" {
		if _, err := clock.ParseDate(input.Date); err != nil {
			response.BadRequest(w, r, "validation failed", fieldError("date", "must be YYYY-MM-DD", "invalid"))
			return
		}
	}

	id, err := h.publisher.PublishSuggestionsRefresh(r.Context(), input.Date)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to publish suggestions refresh")
		response.ServiceUnavailable(w, r, "could not enqueue job")
		return
	}

	response.Accepted(w, r, "", models.JobAccepted{
		MessageID: id,
		JobType:   models.JobTypeSuggestionsRefresh,
		Date:      input.Date,
	})
}
