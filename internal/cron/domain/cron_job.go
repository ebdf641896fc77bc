package domain

import (
	"errors"
	"time"
)

var (
	ErrCronJobNotFound = errors.New("cron job not found")
	ErrInvalidRequest  = errors.New("invalid cron job request")
)

// TaskType is what a job does when it fires
type TaskType string

const (
	TaskEmail   TaskType = "email"
	TaskPDF     TaskType = "pdf"
	TaskScraper TaskType = "scraper"
)

// Valid reports whether t is a known task type
func (t TaskType) Valid() bool {
	switch t {
	case TaskEmail, TaskPDF, TaskScraper:
		return true
	}
	return false
}

// JobStatus represents the current state of a cron job
type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusActive  JobStatus = "active"
	StatusRunning JobStatus = "running"
	StatusStopped JobStatus = "stopped"
	StatusFailed  JobStatus = "failed"
)

// CronJob is the persisted definition of a recurring job plus its run bookkeeping
type CronJob struct {
	ID             string                 `json:"id" gorm:"primaryKey"`
	UserID         string                 `json:"user_id" gorm:"index;not null"`
	Name           string                 `json:"name" gorm:"not null"`
	Schedule       string                 `json:"schedule" gorm:"not null"`
	TaskType       TaskType               `json:"task_type" gorm:"not null"`
	TaskConfig     map[string]interface{} `json:"task_config" gorm:"type:jsonb;serializer:json"`
	Enabled        bool                   `json:"enabled" gorm:"index"`
	Status         JobStatus              `json:"status" gorm:"default:pending"`
	LastRun        *time.Time             `json:"last_run,omitempty"`
	LastError      string                 `json:"last_error,omitempty"`
	ExecutionCount int                    `json:"execution_count" gorm:"default:0"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func (CronJob) TableName() string { return "cron_jobs" }

// Identifier is the registry key for this job
func (j *CronJob) Identifier() string {
	return j.UserID + "_" + j.ID
}
