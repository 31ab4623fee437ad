// Package audit provides database operations for the authentication
// event log.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/permitportal/permitportal/internal/entities"
)

// Repository handles auth event database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new audit repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent persists an auth event.
func (r *Repository) LogEvent(event *entities.AuthEvent) error {
	return r.db.Create(event).Error
}

// RecentByUser returns the most recent events for a user, newest first.
func (r *Repository) RecentByUser(userID uint, limit int) ([]entities.AuthEvent, error) {
	var events []entities.AuthEvent
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// DeleteOldEvents removes events older than the retention period and
// returns the number of rows deleted.
func (r *Repository) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuthEvent{})
	return result.RowsAffected, result.Error
}
