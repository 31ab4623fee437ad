package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// guardFixture wires a real service and session manager behind a
// guarded route, returning the router and a signed-up user ID.
type guardFixture struct {
	router *gin.Engine
	svc    *Service
	sm     *SessionManager
	userID uint
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	svc := setupService(t)
	user, err := svc.Register(validInput())
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	sm := setupSessionManager(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sm.LoadAndSave())

	router.POST("/signin", func(c *gin.Context) {
		if err := sm.SignIn(c.Request, user.ID); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	guard := NewMiddleware(svc, sm)
	router.GET("/members", guard.RequireAuth(), func(c *gin.Context) {
		current := CurrentUser(c)
		if current == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, current.Username)
	})

	return &guardFixture{router: router, svc: svc, sm: sm, userID: user.ID}
}

func (f *guardFixture) signIn(t *testing.T) []*http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sign in: expected 200, got %d", w.Code)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie after sign in")
	}
	return cookies
}

func TestRequireAuth_AnonymousBrowser(t *testing.T) {
	f := newGuardFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if location := w.Header().Get("Location"); location != "/login?message=Please+log+in+first" {
		t.Errorf("unexpected redirect target %q", location)
	}
}

func TestRequireAuth_AnonymousJSON(t *testing.T) {
	f := newGuardFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req.Header.Set("Accept", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a JSON client, got %d", w.Code)
	}
}

func TestRequireAuth_Authenticated(t *testing.T) {
	f := newGuardFixture(t)
	cookies := f.signIn(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with a session, got %d", w.Code)
	}
	if w.Body.String() != "ada" {
		t.Errorf("expected the current user in context, got %q", w.Body.String())
	}
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	f := newGuardFixture(t)
	cookies := f.signIn(t)

	// Remove the account behind the live session.
	if err := f.svc.users.Delete(f.userID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("a session for a deleted user must be treated as anonymous, got %d", w.Code)
	}
}

func TestGetUserID_Anonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetUserID(c); id != 0 {
		t.Errorf("expected 0 for an anonymous request, got %d", id)
	}
	if user := CurrentUser(c); user != nil {
		t.Errorf("expected nil for an anonymous request, got %+v", user)
	}
}
