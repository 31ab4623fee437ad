// Package auth implements the request-authentication pipeline: bcrypt
// password credentials, server-side sessions, CSRF protection, and
// fixed-window rate limiting, composed into an ordered middleware
// chain.
//
// # Middleware ordering
//
// The chain order is an invariant, not a convenience:
//
//	rate limit -> session load -> CSRF verify -> auth guard -> handler
//
// Rate limiting runs before any stateful work so over-limit clients
// are rejected at map-lookup cost. Session load precedes CSRF so the
// verifier runs against a loaded session context, and precedes the
// auth guard, which reads the session. Each stage may short-circuit
// with a terminal response.
//
// # Configuration
//
// All knobs come from environment variables via internal/config:
//
//	SESSION_SECRET=<hex-32-bytes>   # Auto-generated if empty
//	SESSION_LIFETIME=1h             # Session idle timeout
//	BCRYPT_COST=12                  # bcrypt cost factor
//	SECURE_COOKIES=true             # HTTPS-only cookies
//	RATE_LIMIT_WINDOW=15m           # Fixed window duration
//	RATE_LIMIT_MAX=100              # Requests per window per client
//
// # Usage
//
// Wire the pieces in entrypoint:
//
//	svc := auth.NewService(usersRepo, cfg.Auth)
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	limiter := auth.NewRequestLimiter(auth.RequestLimitConfig{...})
//	router.Use(limiter.Middleware())
//	router.Use(sm.LoadAndSave())
//	router.Use(auth.CSRFMiddleware(secret, cfg.Auth.SecureCookies))
package auth
