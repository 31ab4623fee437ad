package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCSRFRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CSRFMiddleware([]byte("0123456789abcdef0123456789abcdef"), false))

	router.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	router.POST("/submit", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

// fetchToken performs a GET to obtain a token and the CSRF cookie.
func fetchToken(t *testing.T, router *gin.Engine) (token string, cookies []*http.Cookie) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("token fetch: expected 200, got %d", w.Code)
	}
	token = w.Body.String()
	if token == "" {
		t.Fatal("expected a non-empty CSRF token")
	}
	return token, w.Result().Cookies()
}

func TestCSRFMiddleware_GETExempt(t *testing.T) {
	router := newCSRFRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET must pass without a token, got %d", w.Code)
	}
}

func TestCSRFMiddleware_POSTWithoutToken(t *testing.T) {
	router := newCSRFRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Accept", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CSRF") {
		t.Errorf("expected a CSRF error body, got %q", w.Body.String())
	}
}

func TestCSRFMiddleware_POSTWithValidToken(t *testing.T) {
	router := newCSRFRouter(t)

	token, cookies := fetchToken(t, router)

	form := url.Values{"gorilla.csrf.Token": {token}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with a valid token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCSRFMiddleware_TokenNotValidAcrossContexts(t *testing.T) {
	router := newCSRFRouter(t)

	// Token issued for one browsing context, cookie from another.
	token, _ := fetchToken(t, router)
	_, otherCookies := fetchToken(t, router)

	form := url.Values{"gorilla.csrf.Token": {token}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	for _, cookie := range otherCookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a mismatched token, got %d", w.Code)
	}
}

func TestCSRFMiddleware_HeaderToken(t *testing.T) {
	router := newCSRFRouter(t)

	token, cookies := fetchToken(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(CSRFTokenHeader, token)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with a header token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCSRFMiddleware_RejectionStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CSRFMiddleware([]byte("0123456789abcdef0123456789abcdef"), false))

	handlerCalls := 0
	router.POST("/submit", func(c *gin.Context) {
		handlerCalls++
		c.String(http.StatusOK, "ok")
	})

	// No token at all, then a forged token: neither may reach the
	// route handler.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Accept", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(CSRFTokenHeader, "forged-token")
	req.Header.Set("Accept", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a forged token, got %d", w.Code)
	}

	if handlerCalls != 0 {
		t.Errorf("handler ran %d times after CSRF rejection", handlerCalls)
	}
}

func TestCSRFErrorHandler_FormRedirect(t *testing.T) {
	router := newCSRFRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Referer", "http://example.com/register")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 back to the referer, got %d", w.Code)
	}
	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "http://example.com/register?message=") {
		t.Errorf("unexpected redirect target %q", location)
	}
}

func TestCSRFTokenField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if field := CSRFTokenField(c); field != "" {
		t.Errorf("expected an empty field without a token, got %q", field)
	}

	c.Set(contextKeyCSRFToken, "tok123")
	field := CSRFTokenField(c)
	if !strings.Contains(field, `name="gorilla.csrf.Token"`) || !strings.Contains(field, "tok123") {
		t.Errorf("malformed hidden field: %q", field)
	}
}
