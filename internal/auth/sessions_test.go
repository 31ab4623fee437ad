package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/permitportal/permitportal/internal/config"
)

func newSessionRouter(sm *SessionManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sm.LoadAndSave())
	router.POST("/signin", func(c *gin.Context) {
		if err := sm.SignIn(c.Request, 9); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.Itoa(int(sm.UserID(c.Request))))
	})
	return router
}

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	sqlDB, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	cfg := config.Auth{
		SessionLifetime: time.Hour,
		SecureCookies:   false,
	}

	sm, err := NewSessionManager(sqlDB, cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	return sm
}

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t)

	if sm.SessionManager == nil {
		t.Fatal("inner session manager should not be nil")
	}

	if sm.Cookie.Name != "session" {
		t.Errorf("expected cookie name 'session', got %q", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSiteLaxMode, got %v", sm.Cookie.SameSite)
	}
	if sm.IdleTimeout != time.Hour {
		t.Errorf("expected 1h idle timeout, got %v", sm.IdleTimeout)
	}
}

func TestSessionManager_SignInSignOut(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	req = req.WithContext(ctx)

	if sm.IsAuthenticated(req) {
		t.Error("fresh session should be anonymous")
	}

	if err := sm.SignIn(req, 42); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if got := sm.UserID(req); got != 42 {
		t.Errorf("expected user ID 42, got %d", got)
	}
	if !sm.IsAuthenticated(req) {
		t.Error("session should be authenticated after SignIn")
	}

	if err := sm.SignOut(req); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if sm.IsAuthenticated(req) {
		t.Error("session should be anonymous after SignOut")
	}
}

func TestSessionManager_SignInRenewsToken(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	req = req.WithContext(ctx)

	// Commit the anonymous session to obtain its token.
	if err := sm.RenewToken(req.Context()); err != nil {
		t.Fatalf("RenewToken failed: %v", err)
	}
	anonToken, _, err := sm.Commit(req.Context())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if err := sm.SignIn(req, 7); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	authToken, _, err := sm.Commit(req.Context())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Fixation defense: a pre-login token must not name the
	// authenticated session.
	if anonToken == authToken {
		t.Error("session token should rotate at login")
	}
}

func TestSessionManager_LoadAndSaveMiddleware(t *testing.T) {
	sm := setupSessionManager(t)

	router := newSessionRouter(sm)

	// First request: no cookie, a session is created on login.
	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == "session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected a session cookie after sign-in")
	}

	// Second request with the cookie resolves the same session.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "9" {
		t.Errorf("expected user id 9, got %q", body)
	}

	// A garbage cookie value falls back to a fresh anonymous session.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "bogus-token"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if body := w.Body.String(); body != "0" {
		t.Errorf("expected anonymous session for bogus cookie, got %q", body)
	}
}
