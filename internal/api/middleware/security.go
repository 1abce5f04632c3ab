package middleware

import (
	"net/http"

	"github.com/nutrilog/nutrilog/internal/api/models"
)

const problemTypeTLSRequired = "https://api.nutrilog.app/problems/tls-required"

// securityHeaders are applied to every response. Responses carry personal
// diet and body data, so nothing may be cached by intermediaries.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Referrer-Policy":           "no-referrer",
	"Cache-Control":             "no-store",
}

// SecurityHeaders sets the fixed security headers before calling next.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects requests that the load balancer reports as plain HTTP
// via X-Forwarded-Proto. Requests without the header (direct connections,
// local development) pass.
func RequireTLS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" && proto != "https" {
			problem := models.NewProblem(problemTypeTLSRequired, "TLS required", http.StatusForbidden, GetRequestID(r.Context()))
			problem.Detail = "NutriLog only accepts HTTPS traffic"
			problem.Instance = r.URL.Path
			problem.Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
