package repository

import (
	"time"

	"office-agent/internal/cron/domain"
)

// CronJobRepository defines the interface for cron job data access.
// Methods ending in System bypass owner scoping and are used only for
// scheduler bookkeeping.
type CronJobRepository interface {
	// Create creates a new job
	Create(job *domain.CronJob) error

	// FindByID finds a job owned by userID
	FindByID(userID, id string) (*domain.CronJob, error)

	// FindByUserID lists a user's jobs, newest first
	FindByUserID(userID string, enabled *bool) ([]*domain.CronJob, error)

	// Update saves every field of job
	Update(job *domain.CronJob) error

	// Delete removes a job owned by userID
	Delete(userID, id string) error

	// FindEnabledSystem lists every enabled job across users
	FindEnabledSystem() ([]*domain.CronJob, error)

	// SetStatusSystem changes only the status column
	SetStatusSystem(id string, status domain.JobStatus) error

	// RecordRunSystem stores the outcome of one execution and bumps execution_count
	RecordRunSystem(id string, status domain.JobStatus, lastError string, at time.Time) error
}
