package auth

import (
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/permitportal/permitportal/internal/config"
)

// SessionKeyUserID is the session data key holding the authenticated
// user's ID. Only the ID is stored; the user record is re-fetched per
// request so stale profile data is never served from the session.
const SessionKeyUserID = "user_id"

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager backed by the
// SQLite sessions table. SessionLifetime is the idle timeout, measured
// from the last write; sessions are capped at 24x that regardless of
// activity.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.IdleTimeout = cfg.SessionLifetime
	sm.Lifetime = cfg.SessionLifetime * 24

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// SignIn binds the session to a user after successful authentication.
// The session token is renewed first so a pre-login session identifier
// can never be fixed onto an authenticated session; the renewal and
// the user-ID write commit together.
func (sm *SessionManager) SignIn(r *http.Request, userID uint) error {
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}
	sm.Put(r.Context(), SessionKeyUserID, int(userID))
	return nil
}

// SignOut removes all session data and invalidates the session. The
// client is instructed to drop the cookie. Safe to call on an
// anonymous session.
func (sm *SessionManager) SignOut(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// UserID retrieves the authenticated user's ID from the session.
// Returns 0 for anonymous sessions.
func (sm *SessionManager) UserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// IsAuthenticated returns true if the request carries an authenticated session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.UserID(r) != 0
}
