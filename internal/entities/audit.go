package entities

import "time"

type AuthAction string

const (
	AuthActionRegister    AuthAction = "register"
	AuthActionLogin       AuthAction = "login"
	AuthActionLoginFailed AuthAction = "login_failed"
	AuthActionLogout      AuthAction = "logout"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuthEvent records an authentication-related action for auditing.
// Identity holds the username or email the client submitted, which for
// failed logins may not correspond to any user.
type AuthEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index" json:"user_id"` // 0 for anonymous attempts
	Action    AuthAction  `gorm:"index;size:50" json:"action"`
	Identity  string      `gorm:"size:255" json:"identity,omitempty"`
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string      `gorm:"size:500" json:"user_agent,omitempty"`
	Status    AuditStatus `gorm:"size:20" json:"status"`
	ErrorMsg  string      `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
