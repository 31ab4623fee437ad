package entities

import (
	"time"

	"gorm.io/gorm"
)

type PermitType string

const (
	PermitLocalSenior    PermitType = "Local Senior"
	PermitLocalAdult     PermitType = "Local Adult"
	PermitVisitingAdult  PermitType = "Visiting Adult"
	PermitVisitingSenior PermitType = "Visiting Senior"
)

// renewalPrices holds the annual renewal price in cents per permit type.
var renewalPrices = map[PermitType]int{
	PermitLocalSenior:    2000,
	PermitLocalAdult:     5000,
	PermitVisitingAdult:  10000,
	PermitVisitingSenior: 5000,
}

// AllPermitTypes lists every permit type accepted at registration.
func AllPermitTypes() []PermitType {
	return []PermitType{
		PermitLocalSenior,
		PermitLocalAdult,
		PermitVisitingAdult,
		PermitVisitingSenior,
	}
}

// Valid reports whether the permit type is one of the known types.
func (p PermitType) Valid() bool {
	_, ok := renewalPrices[p]
	return ok
}

// RenewalPriceCents returns the renewal price for the permit type,
// or 0 for unknown types.
func (p PermitType) RenewalPriceCents() int {
	return renewalPrices[p]
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	FirstName    string         `gorm:"size:100" json:"first_name"`
	LastName     string         `gorm:"size:100" json:"last_name"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:100" json:"-"` // bcrypt digest, hidden from JSON
	PermitType   PermitType     `gorm:"size:50" json:"permit_type"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// FullName returns the user's display name for the members page.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
