package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edtech-syndicate/membership-portal/internal/auth"
	"github.com/edtech-syndicate/membership-portal/internal/config"
	"github.com/edtech-syndicate/membership-portal/internal/http/features/account"
	"github.com/edtech-syndicate/membership-portal/internal/http/features/admin"
	"github.com/edtech-syndicate/membership-portal/internal/http/features/application"
	"github.com/edtech-syndicate/membership-portal/internal/http/features/member"
	"github.com/edtech-syndicate/membership-portal/internal/http/middleware"
	"github.com/edtech-syndicate/membership-portal/internal/httputil"
	"github.com/edtech-syndicate/membership-portal/internal/service"
)

// ServiceName identifies the API in the health response.
const ServiceName = "EdTech Syndicate API"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	IdentityService    *auth.IdentityService
	ApplicationService *service.ApplicationService
	TokenTTL           time.Duration
	RateLimit          config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
	MaxRequestBodySize int64
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   ServiceName,
		})
	})

	authLimiter := middleware.AuthRateLimiter(cfg.RateLimit, cfg.Logger)
	requireAuth := middleware.Auth(cfg.IdentityService)

	// Public credential endpoints
	accountHandler := account.NewHandler(cfg.Logger, cfg.IdentityService, int(cfg.TokenTTL.Seconds()))
	r.Group(func(r chi.Router) {
		r.Use(authLimiter)
		r.Post("/v1/auth/signup", accountHandler.Signup)
		r.Post("/v1/auth/login", accountHandler.Login)
	})

	// Applicant endpoints
	applicationHandler := application.NewHandler(cfg.Logger, cfg.ApplicationService)
	memberHandler := member.NewHandler(cfg.Logger, cfg.ApplicationService)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/v1/application", applicationHandler.Submit)
		r.Get("/v1/application/{userID}", applicationHandler.Get)
		r.Get("/v1/member/card", memberHandler.Card)
	})

	// Admin review endpoints
	adminHandler := admin.NewHandler(cfg.Logger, cfg.ApplicationService)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin())
		r.Get("/v1/admin/applications", adminHandler.List)
		r.Post("/v1/admin/application/{id}/approve", adminHandler.Approve)
		r.Post("/v1/admin/application/{id}/reject", adminHandler.Reject)
	})

	return r
}
