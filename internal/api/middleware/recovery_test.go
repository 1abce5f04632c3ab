package middleware_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/auth"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestRecovery_WritesProblemAndLogsUser(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	jwtService := createTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("usr_panic", auth.RoleUser)
	require.NoError(t, err)

	handler := middleware.RequestID(middleware.Logger(log)(middleware.Recovery(log)(
		middleware.Auth(jwtService)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil food")
		})),
	)))

	req := httptest.NewRequest(http.MethodPost, "/v1/me/logs/today/entries", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeInternal, problem.Type)
	assert.Equal(t, "/v1/me/logs/today/entries", problem.Instance)
	assert.Equal(t, w.Header().Get("X-Request-Id"), problem.TraceID)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "panic recovered", lines[0]["message"])
	assert.Equal(t, "nil food", lines[0]["panic"])
	assert.Equal(t, "usr_panic", lines[0]["user_id"])
	assert.NotEmpty(t, lines[0]["stack"])
	assert.Equal(t, "request completed", lines[1]["message"])
	assert.Equal(t, float64(500), lines[1]["status"])
}

func TestRecovery_RepanicsOnAbortHandler(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody))
	})
}
