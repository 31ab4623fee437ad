package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/permitportal/permitportal/internal/entities"
)

// Context keys for the authenticated user
const (
	ContextKeyUserID = "auth_user_id"
	ContextKeyUser   = "auth_user"
)

// Middleware guards routes that require an authenticated session.
type Middleware struct {
	service  *Service
	sessions *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessions *SessionManager) *Middleware {
	return &Middleware{
		service:  service,
		sessions: sessions,
	}
}

// RequireAuth rejects anonymous requests with a retryable
// "please authenticate" signal: browsers are redirected to the login
// form, JSON clients get a 401. The user record is re-fetched from the
// store on every request; a session naming a user that no longer
// exists is treated as anonymous.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := m.sessions.UserID(c.Request)
		if userID == 0 {
			m.rejectAnonymous(c)
			return
		}

		user, err := m.service.UserByID(userID)
		if err != nil {
			m.rejectAnonymous(c)
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

func (m *Middleware) rejectAnonymous(c *gin.Context) {
	if isJSONRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
		return
	}
	c.Redirect(http.StatusFound, "/login?message=Please+log+in+first")
	c.Abort()
}

// isJSONRequest determines if this is an API client rather than a browser.
func isJSONRequest(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 when the request is anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// CurrentUser retrieves the authenticated user from the context, or
// nil when the request is anonymous.
func CurrentUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}
