package http

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/permitportal/permitportal/internal/auth"
)

// NewRouter creates and configures the HTTP router.
//
// The middleware chain order is an invariant: the rate limiter runs
// before any session or database work so over-limit clients are
// rejected cheaply; session load runs before CSRF verification; CSRF
// verification runs before every state-changing handler; the auth
// guard wraps only the routes that need it. Each stage short-circuits
// the chain with a terminal response on failure.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	if cfg.Limiter != nil {
		router.Use(cfg.Limiter.Middleware())
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
	}

	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.StaticPath != "" {
		if _, err := os.Stat(cfg.StaticPath); err == nil {
			router.Static("/static", cfg.StaticPath)
		}
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuditService, cfg.TemplatesPath)
	guard := auth.NewMiddleware(cfg.AuthService, cfg.SessionManager)
	authController.RegisterRoutes(router, guard)

	return router
}
