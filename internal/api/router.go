// Package api provides the HTTP API for NutriLog.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/handler"
	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/featureflags"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/provider/resilience"
	"github.com/nutrilog/nutrilog/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	TokenValidator     middleware.TokenValidator
	UserService        *user.Service
	FoodService        *food.Service
	LogService         *dailylog.Service
	FeatureFlagService *featureflags.Service
	Providers          *resilience.Registry
	JobPublisher       handler.JobPublisher
	ReadinessChecks    []handler.DependencyCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "nutrilog-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	if cfg.RequireTLS {
		r.Use(middleware.RequireTLS) // Reject plain HTTP forwarded by the load balancer
	}
	r.Use(middleware.ContentTypeJSON) // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Checks:    cfg.ReadinessChecks,
		Providers: cfg.Providers,
		Flags:     cfg.FeatureFlagService,
	})
	meHandler := handler.NewMeHandler(cfg.UserService, cfg.Logger)
	logHandler := handler.NewLogHandler(cfg.LogService, cfg.Logger)
	foodHandler := handler.NewFoodHandler(cfg.FoodService, cfg.UserService, cfg.LogService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)
	jobsHandler := handler.NewJobsHandler(cfg.JobPublisher, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.TokenValidator)

	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min per user
	searchRateLimit := middleware.RateLimitByUser(middleware.SearchRateLimit) // 30 req/min per user
	adminRateLimit := middleware.RateLimitByUser(middleware.AdminRateLimit)   // 10 req/min per user

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(middleware.PublicRateLimit))

			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Me endpoints (authenticated) - user-based rate limiting
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)
			r.Use(middleware.RequireJSON)

			r.Get("/", meHandler.GetMe)
			r.Put("/", meHandler.UpsertMe)
			r.Delete("/", meHandler.DeleteMe)

			r.Get("/history", logHandler.History)

			r.Route("/logs", func(r chi.Router) {
				r.Route("/today", func(r chi.Router) {
					r.Get("/", logHandler.GetToday)
					r.Post("/entries", logHandler.AddEntry)
					r.Put("/entries/{entryId}", logHandler.UpdateEntry)
					r.Delete("/entries/{entryId}", logHandler.RemoveEntry)
					r.Post("/water", logHandler.AdjustWater)
					r.Get("/categories", logHandler.CategoryTotals)
				})
				r.Get("/{date}", logHandler.GetByDate)
			})

			r.Route("/foods", func(r chi.Router) {
				r.With(searchRateLimit).Get("/", foodHandler.Search)
				r.Post("/", foodHandler.Create)
				r.Get("/recent", foodHandler.Recent)
				r.Patch("/{foodId}", foodHandler.UpdateCategory)
			})
		})

		// Admin endpoints (admin role) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin)
			r.Use(adminRateLimit)
			r.Use(middleware.RequireJSON)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
				r.Delete("/{key}", featureFlagsHandler.ResetFeatureFlag)
			})

			r.Post("/jobs/suggestions-refresh", jobsHandler.TriggerSuggestionsRefresh)
		})
	})

	return r
}
