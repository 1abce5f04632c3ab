package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/auth"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

type claimsKey struct{}

// Auth requires a valid "Authorization: Bearer <token>" header and stores
// the caller's claims in the request context. Failures are 401 problems with
// a WWW-Authenticate challenge.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := bearerToken(r.Header.Get("Authorization"))
			if detail != "" {
				unauthorized(w, r, detail, "")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrAccessTokenExpired):
				unauthorized(w, r, "access token has expired", "invalid_token")
				return
			case errors.Is(err, auth.ErrInvalidAccessToken), errors.Is(err, auth.ErrMissingSubject):
				unauthorized(w, r, "invalid access token", "invalid_token")
				return
			default:
				unauthorized(w, r, "authentication failed", "invalid_token")
				return
			}

			setLogUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// bearerToken extracts the token, or returns a problem detail explaining
// what is wrong with the header.
func bearerToken(header string) (token, detail string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, detail, errCode string) {
	challenge := `Bearer realm="nutrilog"`
	if errCode != "" {
		challenge += `, error="` + errCode + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)

	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// RequireAdmin must be mounted after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !claimsFrom(r.Context()).IsAdmin() {
			problem := models.NewForbidden(GetRequestID(r.Context()), "admin role required")
			problem.Instance = r.URL.Path
			problem.Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// GetUserID returns the authenticated user, or "" outside Auth.
func GetUserID(ctx context.Context) string {
	if c := claimsFrom(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// GetRole returns the authenticated role, or "" outside Auth.
func GetRole(ctx context.Context) auth.Role {
	if c := claimsFrom(ctx); c != nil {
		return c.Role
	}
	return ""
}

// WithUserID attaches a plain user identity to ctx, bypassing token checks.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, claimsKey{}, &auth.Claims{UserID: userID, Role: auth.RoleUser})
}
