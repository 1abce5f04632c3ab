package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/auth"
)

func createTestJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.nutrilog.app",
		Audience:   "nutrilog-api",
	})
}

type validatorFunc func(string) (*auth.Claims, error)

func (f validatorFunc) ValidateAccessToken(token string) (*auth.Claims, error) { return f(token) }

func authRequest(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth_RejectsBadHeaders(t *testing.T) {
	h := middleware.Auth(createTestJWTService())(okHandler)

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing", "", "missing authorization header"},
		{"no scheme", "token123", "invalid authorization header format"},
		{"basic auth", "Basic dXNlcjpwYXNz", "invalid authorization header format"},
		{"scheme only", "Bearer", "invalid authorization header format"},
		{"empty token", "Bearer ", "missing bearer token"},
		{"garbage token", "Bearer invalid.jwt.token", "invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := authRequest(h, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.detail)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `Bearer realm="nutrilog"`)
		})
	}
}

func TestAuth_WrongSigningKey(t *testing.T) {
	other := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "some-other-key",
		Issuer:     "https://api.nutrilog.app",
		Audience:   "nutrilog-api",
	})
	token, _, err := other.GenerateAccessToken("usr_testuser123", auth.RoleUser)
	require.NoError(t, err)

	rec := authRequest(middleware.Auth(createTestJWTService())(okHandler), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}

func TestAuth_ValidatorErrors(t *testing.T) {
	tests := []struct {
		err    error
		detail string
	}{
		{auth.ErrAccessTokenExpired, "access token has expired"},
		{auth.ErrMissingSubject, "invalid access token"},
		{errors.New("keyring offline"), "authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			v := validatorFunc(func(string) (*auth.Claims, error) { return nil, tt.err })
			rec := authRequest(middleware.Auth(v)(okHandler), "Bearer abc")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.detail)
		})
	}
}

func TestAuth_ValidToken(t *testing.T) {
	jwtService := createTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("usr_testuser123", auth.RoleUser)
	require.NoError(t, err)

	var userID string
	var role auth.Role
	h := middleware.Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = middleware.GetUserID(r.Context())
		role = middleware.GetRole(r.Context())
	}))

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		rec := authRequest(h, scheme+" "+token)
		assert.Equal(t, http.StatusOK, rec.Code, scheme)
		assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	}
	assert.Equal(t, "usr_testuser123", userID)
	assert.Equal(t, auth.RoleUser, role)
}

func TestRequireAdmin(t *testing.T) {
	jwtService := createTestJWTService()
	chain := middleware.Auth(jwtService)(middleware.RequireAdmin(okHandler))

	tests := []struct {
		name   string
		role   auth.Role
		status int
	}{
		{"admin passes", auth.RoleAdmin, http.StatusOK},
		{"user is forbidden", auth.RoleUser, http.StatusForbidden},
		{"no role is forbidden", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := jwtService.GenerateAccessToken("usr_ops", tt.role)
			require.NoError(t, err)

			assert.Equal(t, tt.status, authRequest(chain, "Bearer "+token).Code)
		})
	}
}

func TestRequireAdmin_WithoutAuth(t *testing.T) {
	rec := authRequest(middleware.RequireAdmin(okHandler), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestContextAccessors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", http.NoBody)
	assert.Empty(t, middleware.GetUserID(req.Context()))
	assert.Empty(t, middleware.GetRole(req.Context()))

	ctx := middleware.WithUserID(req.Context(), "usr_abc")
	assert.Equal(t, "usr_abc", middleware.GetUserID(ctx))
	assert.Equal(t, auth.RoleUser, middleware.GetRole(ctx))
}
