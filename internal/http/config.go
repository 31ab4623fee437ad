package http

import (
	"github.com/permitportal/permitportal/internal/audit"
	"github.com/permitportal/permitportal/internal/auth"
	"github.com/permitportal/permitportal/internal/config"
	"github.com/permitportal/permitportal/internal/database"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router. This replaces a long parameter list in
// NewRouter for better testability.
type RouterConfig struct {
	// Core dependencies
	Database       *database.Database
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuditService   *audit.Service
	Limiter        *auth.RequestLimiter

	// CSRF
	CSRFSecret    []byte
	SecureCookies bool

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string

	AuthConfig config.Auth
}
