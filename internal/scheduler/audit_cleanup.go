// Package scheduler runs periodic maintenance on a cron schedule.
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/permitportal/permitportal/internal/tasks"
)

// AuditCleanupScheduler periodically enqueues the auth event retention
// cleanup task.
type AuditCleanupScheduler struct {
	taskClient    *tasks.Client
	schedule      string
	retentionDays int

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewAuditCleanupScheduler creates a new scheduler instance.
func NewAuditCleanupScheduler(taskClient *tasks.Client, schedule string, retentionDays int) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		taskClient:    taskClient,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *AuditCleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.enqueueCleanup)
	if err != nil {
		return fmt.Errorf("invalid audit cleanup schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("Audit cleanup scheduler started (schedule %q, retention %d days)", s.schedule, s.retentionDays)
	return nil
}

// Stop halts the scheduler. Jobs already enqueued keep running on the
// task queue.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cron.Remove(s.entryID)
	s.cron.Stop()
	s.isRunning = false
	log.Println("Audit cleanup scheduler stopped")
}

func (s *AuditCleanupScheduler) enqueueCleanup() {
	_, err := s.taskClient.Add(tasks.CleanupAuthEventsTask{
		RetentionDays: s.retentionDays,
	}).Save()
	if err != nil {
		log.Printf("Failed to enqueue auth event cleanup: %v", err)
	}
}
