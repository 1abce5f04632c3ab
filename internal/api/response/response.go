// Package response writes JSON bodies and RFC7807 problems for the API
// handlers. Every response echoes the request ID as X-Request-Id.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/models"
)

func setRequestID(w http.ResponseWriter, r *http.Request) string {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	return requestID
}

// JSON writes data with status. A nil data writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 pointing at the new resource.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	withLocation(w, location)
	JSON(w, r, http.StatusCreated, data)
}

// Accepted writes a 202 for work handed to the job queue.
func Accepted(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	withLocation(w, location)
	JSON(w, r, http.StatusAccepted, data)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func withLocation(w http.ResponseWriter, location string) {
	if location != "" {
		w.Header().Set("Location", location)
	}
}

type problemFunc func(traceID, detail string) *models.Problem

func writeProblem(w http.ResponseWriter, r *http.Request, newProblem problemFunc, detail string) {
	problem := newProblem(setRequestID(w, r), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// BadRequest writes a 400 validation problem with optional field errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	writeProblem(w, r, func(traceID, detail string) *models.Problem {
		return models.NewBadRequest(traceID, detail, errors)
	}, detail)
}

func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, models.NewUnauthorized, detail)
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, models.NewNotFound, detail)
}

func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, models.NewConflict, detail)
}

// InternalError hides the cause; log it before calling.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, models.NewInternalError, detail)
}

// ServiceUnavailable signals a missing optional backend, such as the job queue.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, models.NewServiceUnavailable, detail)
}
