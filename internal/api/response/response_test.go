package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
)

// serve runs write behind the RequestID middleware, as the router does.
func serve(t *testing.T, method, path string, write func(http.ResponseWriter, *http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set("X-Request-Id", "req_fixed")
	middleware.RequestID(http.HandlerFunc(write)).ServeHTTP(rec, req)
	return rec
}

func TestJSON(t *testing.T) {
	rec := serve(t, http.MethodGet, "/v1/me", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]int{"caloriesConsumed": 420})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"caloriesConsumed":420}`, rec.Body.String())
}

func TestJSON_NilDataWritesNoBody(t *testing.T) {
	rec := serve(t, http.MethodGet, "/v1/me", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, nil)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody), http.StatusOK, nil)

	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestCreatedAndAccepted_SetLocation(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request, string, interface{})
		status int
	}{
		{"created", response.Created, http.StatusCreated},
		{"accepted", response.Accepted, http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodPost, "/v1/me/foods", func(w http.ResponseWriter, r *http.Request) {
				tt.write(w, r, "/v1/me/foods/fd_1", map[string]string{"id": "fd_1"})
			})

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "/v1/me/foods/fd_1", rec.Header().Get("Location"))
			assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
			assert.JSONEq(t, `{"id":"fd_1"}`, rec.Body.String())
		})
	}
}

func TestNoContent(t *testing.T) {
	rec := serve(t, http.MethodDelete, "/v1/me", response.NoContent)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
	assert.Zero(t, rec.Body.Len())
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, *http.Request)
		status   int
		wantType string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "quantity", Message: "must be positive"}})
		}, http.StatusBadRequest, models.ProblemTypeValidation},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			response.Unauthorized(w, r, "invalid token")
		}, http.StatusUnauthorized, models.ProblemTypeUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "daily log not found")
		}, http.StatusNotFound, models.ProblemTypeNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			response.Conflict(w, r, "food already exists")
		}, http.StatusConflict, models.ProblemTypeConflict},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "an unexpected error occurred")
		}, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "job queue not configured")
		}, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodPost, "/v1/me/logs/today/entries", tt.write)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, "req_fixed", problem.TraceID)
			assert.Equal(t, "/v1/me/logs/today/entries", problem.Instance)
		})
	}
}

func TestBadRequest_IncludesFieldErrors(t *testing.T) {
	rec := serve(t, http.MethodPut, "/v1/me", func(w http.ResponseWriter, r *http.Request) {
		response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "age", Message: "must be positive", Code: "range"}})
	})

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "age", problem.Errors[0].Field)
	assert.Equal(t, "range", problem.Errors[0].Code)
}
