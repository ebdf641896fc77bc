package usecase

import (
	"context"

	"office-agent/internal/cron/domain"
)

// CronUsecase defines the interface for scheduled job business logic
type CronUsecase interface {
	// CreateJob validates the schedule, persists the job and registers its timer
	CreateJob(ctx context.Context, userID string, input CreateJobInput) (*domain.CronJob, error)

	// ListJobs lists the user's jobs, optionally filtered by enabled
	ListJobs(userID string, enabled *bool) ([]*domain.CronJob, error)

	// GetJob retrieves one job (with ownership check)
	GetJob(userID, jobID string) (*domain.CronJob, error)

	// UpdateJob applies the patch and re-registers the timer
	UpdateJob(ctx context.Context, userID, jobID string, input UpdateJobInput) (*domain.CronJob, error)

	// StartJob enables the job and starts its timer
	StartJob(userID, jobID string) (*domain.CronJob, error)

	// StopJob disables the job and stops its timer
	StopJob(userID, jobID string) (*domain.CronJob, error)

	// DeleteJob unregisters the timer, then deletes the row
	DeleteJob(userID, jobID string) error

	// ListActive returns the caller's ticking registry identifiers
	ListActive(userID string) []string

	// RestoreJobs registers every enabled job at startup
	RestoreJobs(ctx context.Context) (int, error)
}

// CreateJobInput represents the fields accepted when creating a job
type CreateJobInput struct {
	Name       string                 `json:"name" binding:"required"`
	Schedule   string                 `json:"schedule" binding:"required"`
	TaskType   string                 `json:"task_type" binding:"required"`
	TaskConfig map[string]interface{} `json:"task_config"`
	Enabled    *bool                  `json:"enabled"`
}

// UpdateJobInput represents the fields that can be updated
type UpdateJobInput struct {
	Name       *string                `json:"name,omitempty"`
	Schedule   *string                `json:"schedule,omitempty"`
	TaskType   *string                `json:"task_type,omitempty"`
	TaskConfig map[string]interface{} `json:"task_config,omitempty"`
	Enabled    *bool                  `json:"enabled,omitempty"`
}
