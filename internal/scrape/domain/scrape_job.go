package domain

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound    = errors.New("scrape job not found")
	ErrInvalidRequest = errors.New("invalid scrape request")
	ErrJobRunning     = errors.New("scrape job is still running")
)

// ScrapeJob status values
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ScrapeJob records one scrape and its result
type ScrapeJob struct {
	ID           string                 `json:"id" gorm:"primaryKey"`
	UserID       string                 `json:"user_id" gorm:"index;not null"`
	URL          string                 `json:"url" gorm:"not null"`
	Selectors    map[string]string      `json:"selectors,omitempty" gorm:"type:jsonb;serializer:json"`
	Status       string                 `json:"status" gorm:"index;not null;default:running"`
	ResultData   map[string]interface{} `json:"result_data,omitempty" gorm:"type:jsonb;serializer:json"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func (ScrapeJob) TableName() string { return "scrape_jobs" }
