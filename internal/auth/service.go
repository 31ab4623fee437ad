package auth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/permitportal/permitportal/internal/config"
	"github.com/permitportal/permitportal/internal/database/users"
	"github.com/permitportal/permitportal/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrFieldsRequired    = errors.New("all fields are required")
	ErrUsernameInvalid   = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid      = errors.New("invalid email format")
	ErrPermitTypeInvalid = errors.New("invalid permit type")

	// ErrDuplicateUser deliberately carries no field-level detail: the
	// response must not reveal whether the username or the email collided.
	ErrDuplicateUser = users.ErrDuplicateUser

	// ErrInvalidCredentials covers both unknown identity and wrong
	// password; the two cases are externally indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RegistrationInput carries the registration form fields.
type RegistrationInput struct {
	FirstName  string
	LastName   string
	Username   string
	Email      string
	Password   string
	PermitType entities.PermitType
}

// Service handles registration and credential authentication.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Register validates the input, hashes the password, and persists a new
// user. Identity uniqueness is enforced by the store's unique indexes,
// so the check and the insert cannot race; a collision on either
// username or email surfaces as ErrDuplicateUser. The caller stays
// anonymous; registration never signs the session in.
func (s *Service) Register(in RegistrationInput) (*entities.User, error) {
	if in.FirstName == "" || in.LastName == "" || in.Username == "" ||
		in.Email == "" || in.Password == "" || in.PermitType == "" {
		return nil, ErrFieldsRequired
	}
	if !usernamePattern.MatchString(in.Username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 caps addresses at 254 octets
	if len(in.Email) > 254 || !emailPattern.MatchString(in.Email) {
		return nil, ErrEmailInvalid
	}
	if !in.PermitType.Valid() {
		return nil, ErrPermitTypeInvalid
	}

	passwordHash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		PermitType:   in.PermitType,
	}

	created, err := s.users.Create(user)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUser) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// Authenticate validates credentials and returns the user. The
// identity may be a username or an email. An unknown identity and a
// wrong password return the same ErrInvalidCredentials, and the
// unknown-identity path still performs one bcrypt comparison so the
// two cases cannot be told apart by timing either.
func (s *Service) Authenticate(identity, password string) (*entities.User, error) {
	user, err := s.users.GetByIdentity(identity)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			CheckPasswordDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Best effort; a failed timestamp update must not fail the login.
	_ = s.users.TouchLastLogin(user.ID)

	return user, nil
}

// UserByID retrieves a user by ID. Used by the auth guard to re-fetch
// the user record for each authenticated request.
func (s *Service) UserByID(id uint) (*entities.User, error) {
	return s.users.GetByID(id)
}
