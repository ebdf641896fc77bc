package domain

import (
	"errors"
	"time"
)

var (
	ErrNoEmailConfig       = errors.New("no email configuration found")
	ErrEmailConfigNotFound = errors.New("email configuration not found")
	ErrInvalidRequest      = errors.New("invalid email request")
)

// SentEmail status values
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// EmailConfig is a user's SMTP login. The password is stored encrypted.
type EmailConfig struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"not null;uniqueIndex:idx_email_config_user_name"`
	ConfigName   string    `json:"config_name" gorm:"not null;uniqueIndex:idx_email_config_user_name"`
	SMTPHost     string    `json:"smtp_host" gorm:"not null"`
	SMTPPort     int       `json:"smtp_port" gorm:"not null;default:587"`
	SMTPUser     string    `json:"smtp_user" gorm:"not null"`
	SMTPPassword string    `json:"-" gorm:"not null"`
	FromName     string    `json:"from_name"`
	IsDefault    bool      `json:"is_default" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (EmailConfig) TableName() string { return "user_email_configs" }

// Secure reports whether the connection uses implicit TLS
func (c *EmailConfig) Secure() bool { return c.SMTPPort == 465 }

// SentEmail is the audit row for every outgoing message, successful or not
type SentEmail struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	Recipient    string    `json:"recipient" gorm:"not null"`
	Cc           string    `json:"cc,omitempty"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Status       string    `json:"status" gorm:"index;not null"`
	MessageID    string    `json:"message_id,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SentEmail) TableName() string { return "emails_sent" }
