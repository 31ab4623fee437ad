package auth

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/permitportal/permitportal/internal/audit"
	"github.com/permitportal/permitportal/internal/entities"
)

// AuthController handles the registration, login, members and logout
// endpoints.
type AuthController struct {
	service   *Service
	sessions  *SessionManager
	audit     *audit.Service
	templates *template.Template
}

// NewAuthController creates a new authentication controller. Templates
// are optional; without them the controller answers with JSON view
// models, which the tests rely on.
func NewAuthController(service *Service, sessions *SessionManager, auditSvc *audit.Service, templatesPath string) *AuthController {
	pattern := filepath.Join(templatesPath, "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}

	return &AuthController{
		service:   service,
		sessions:  sessions,
		audit:     auditSvc,
		templates: tmpl,
	}
}

// RegisterRoutes registers the auth routes on the router. The members
// page sits behind the auth guard.
func (ac *AuthController) RegisterRoutes(router *gin.Engine, guard *Middleware) {
	router.GET("/", ac.Home)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/members", guard.RequireAuth(), ac.MembersPage)
	router.GET("/logout", ac.Logout)
}

// Home redirects to the members page or the login form.
func (ac *AuthController) Home(c *gin.Context) {
	if ac.sessions.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/members")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if ac.sessions.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/members")
		return
	}

	ac.renderTemplate(c, "register.html", gin.H{
		"Title":       "Register",
		"CSRFToken":   GetCSRFToken(c),
		"PermitTypes": entities.AllPermitTypes(),
		"Message":     c.Query("message"),
	})
}

// Register handles the registration form submission. On success the
// client stays anonymous and is sent to the login form.
func (ac *AuthController) Register(c *gin.Context) {
	input := RegistrationInput{
		FirstName:  c.PostForm("first_name"),
		LastName:   c.PostForm("last_name"),
		Username:   c.PostForm("username"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		PermitType: entities.PermitType(c.PostForm("permit_type")),
	}

	user, err := ac.service.Register(input)
	if ac.audit != nil {
		var userID uint
		if user != nil {
			userID = user.ID
		}
		ac.audit.LogRegistration(userID, input.Email, c.ClientIP(), c.Request.UserAgent(), err)
	}
	if err != nil {
		msg, ok := registrationMessage(err)
		if !ok {
			// Store or hashing failure; detail stays in the logs.
			log.Printf("Registration failed: %v", err)
			c.String(http.StatusInternalServerError, "Error registering user.")
			return
		}
		redirectWithMessage(c, "/register", msg)
		return
	}

	redirectWithMessage(c, "/login", "Account created. Please log in.")
}

// registrationMessage maps a registration error to the message shown
// to the client. The duplicate-identity message never says which field
// collided. Returns ok=false for internal errors that must not leak.
func registrationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrFieldsRequired):
		return "All fields are required.", true
	case errors.Is(err, ErrUsernameInvalid):
		return "Username must be 3-64 characters, alphanumeric with underscore/hyphen only.", true
	case errors.Is(err, ErrEmailInvalid):
		return "Invalid email address.", true
	case errors.Is(err, ErrPermitTypeInvalid):
		return "Please select a valid permit type.", true
	case errors.Is(err, ErrPasswordTooShort):
		return "Password must be at least 8 characters.", true
	case errors.Is(err, ErrPasswordTooLong):
		return "Password exceeds maximum length of 72 characters.", true
	case errors.Is(err, ErrDuplicateUser):
		return "User already exists.", true
	default:
		return "", false
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessions.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/members")
		return
	}

	ac.renderTemplate(c, "login.html", gin.H{
		"Title":     "Login",
		"CSRFToken": GetCSRFToken(c),
		"Message":   c.Query("message"),
	})
}

// Login handles the login form submission. Unknown identities and
// wrong passwords take the same path out.
func (ac *AuthController) Login(c *gin.Context) {
	identity := c.PostForm("identity")
	if identity == "" {
		identity = c.PostForm("email")
	}
	password := c.PostForm("password")

	user, err := ac.service.Authenticate(identity, password)
	if err != nil {
		if ac.audit != nil {
			ac.audit.LogLogin(0, identity, c.ClientIP(), c.Request.UserAgent(), err)
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Login failed: %v", err)
			c.String(http.StatusInternalServerError, "Error during login.")
			return
		}
		redirectWithMessage(c, "/login", "Invalid credentials.")
		return
	}

	if err := ac.sessions.SignIn(c.Request, user.ID); err != nil {
		log.Printf("Failed to create session: %v", err)
		c.String(http.StatusInternalServerError, "Error during login.")
		return
	}

	if ac.audit != nil {
		ac.audit.LogLogin(user.ID, identity, c.ClientIP(), c.Request.UserAgent(), nil)
	}

	c.Redirect(http.StatusSeeOther, "/members")
}

// MembersPage renders the member profile with the renewal price for
// the user's permit type.
func (ac *AuthController) MembersPage(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login?message=Please+log+in+first")
		return
	}

	renewalCents := user.PermitType.RenewalPriceCents()
	ac.renderTemplate(c, "members.html", gin.H{
		"Title":                "Members",
		"FirstName":            user.FirstName,
		"LastName":             user.LastName,
		"PermitType":           user.PermitType,
		"RenewalPrice":         fmt.Sprintf("%.2f", float64(renewalCents)/100),
		"DisplayPaymentOption": renewalCents > 0,
	})
}

// Logout destroys the session and redirects to login. A no-op for
// anonymous sessions.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := ac.sessions.UserID(c.Request)
	_ = ac.sessions.SignOut(c.Request)

	if ac.audit != nil && userID != 0 {
		ac.audit.LogLogout(userID, c.ClientIP(), c.Request.UserAgent())
	}

	c.Redirect(http.StatusFound, "/login")
}

// redirectWithMessage sends the client to path with a flash-style
// message in the query string.
func redirectWithMessage(c *gin.Context, path, message string) {
	c.Redirect(http.StatusSeeOther, path+"?message="+url.QueryEscape(message))
}

// renderTemplate renders a template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		log.Printf("Template error: %v", err)
		c.String(http.StatusInternalServerError, "Error rendering page.")
	}
}
