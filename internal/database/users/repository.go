// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByIdentity("a@x.com")
package users

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/permitportal/permitportal/internal/entities"
)

// ErrDuplicateUser is returned when an insert collides with an existing
// username or email. The store's unique indexes enforce this atomically,
// so concurrent registrations for the same identity cannot both succeed.
var ErrDuplicateUser = errors.New("user already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Uniqueness violations on username or email
// surface as ErrDuplicateUser without revealing which field collided.
func (r *Repository) Create(user *entities.User) (*entities.User, error) {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return user, nil
}

// GetByIdentity retrieves a user by username or email.
func (r *Repository) GetByIdentity(identity string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", identity, identity).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// TouchLastLogin records a successful login time.
func (r *Repository) TouchLastLogin(id uint) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// Delete soft-deletes a user account. Live sessions naming the user
// become anonymous on their next request.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.User{}, id).Error
}

// Count returns the number of registered users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	// GORM may flatten driver errors into plain error strings.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
