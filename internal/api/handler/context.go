package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/lock"
	"github.com/nutrilog/nutrilog/internal/user"
)

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

// requireUser writes a 401 and returns false when the request is anonymous.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "user not authenticated")
		return "", false
	}
	return userID, true
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// writeServiceError maps domain errors to Problem responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var (
		userValidation *user.ValidationError
		foodValidation *food.ValidationError
		logValidation  *dailylog.ValidationError
	)

	switch {
	case errors.As(err, &userValidation):
		response.BadRequest(w, r, "validation failed", userValidation.Errors)
	case errors.As(err, &foodValidation):
		response.BadRequest(w, r, "validation failed", foodValidation.Errors)
	case errors.As(err, &logValidation):
		response.BadRequest(w, r, "validation failed", logValidation.Errors)
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, r, "user profile not found")
	case errors.Is(err, food.ErrFoodNotFound):
		response.NotFound(w, r, "food not found")
	case errors.Is(err, dailylog.ErrLogNotFound):
		response.NotFound(w, r, "daily log not found")
	case errors.Is(err, dailylog.ErrEntryNotFound):
		response.NotFound(w, r, "log entry not found")
	case errors.Is(err, lock.ErrNotAcquired):
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			response.ServiceUnavailable(w, r, "request timed out")
			return
		}
		response.Conflict(w, r, "log is being updated, retry")
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "internal server error")
	}
}

// fieldError builds a single-field validation error list.
func fieldError(field, message, code string) []models.FieldError {
	return []models.FieldError{{Field: field, Message: message, Code: code}}
}
