// Package audit records authentication events for later review.
package audit

import (
	"log"

	"github.com/permitportal/permitportal/internal/database/audit"
	"github.com/permitportal/permitportal/internal/entities"
)

// Service provides high-level audit logging for auth flows.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an auth event synchronously.
func (s *Service) Log(event *entities.AuthEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an auth event in the background so the request path
// never blocks on the audit write.
func (s *Service) LogAsync(event *entities.AuthEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log auth event: %v", err)
		}
	}()
}

// LogLogin records a login attempt. A nil err means success; the
// identity is kept so failed attempts against unknown accounts are
// still visible.
func (s *Service) LogLogin(userID uint, identity, ip, userAgent string, err error) {
	event := &entities.AuthEvent{
		UserID:    userID,
		Action:    entities.AuthActionLogin,
		Identity:  identity,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Action = entities.AuthActionLoginFailed
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogRegistration records a registration attempt.
func (s *Service) LogRegistration(userID uint, identity, ip, userAgent string, err error) {
	event := &entities.AuthEvent{
		UserID:    userID,
		Action:    entities.AuthActionRegister,
		Identity:  identity,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// LogLogout records a logout.
func (s *Service) LogLogout(userID uint, ip, userAgent string) {
	s.LogAsync(&entities.AuthEvent{
		UserID:    userID,
		Action:    entities.AuthActionLogout,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    entities.AuditStatusSuccess,
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
