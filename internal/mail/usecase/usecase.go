package usecase

import (
	"context"

	"office-agent/internal/mail/domain"
	"office-agent/pkg/smtp"
)

// MailUsecase defines the interface for sending mail through user SMTP configs
type MailUsecase interface {
	// Send delivers one message using req.ConfigID, or the default config when empty
	Send(ctx context.Context, userID string, req SendRequest) (*SendResult, error)

	// SendWithDefaultConfig ignores req.ConfigID and always uses the default config
	SendWithDefaultConfig(ctx context.Context, userID string, req SendRequest) (*SendResult, error)

	// SendBulk sends each request independently and never aborts on a failure
	SendBulk(ctx context.Context, userID string, reqs []SendRequest) []BulkResult

	// History returns the most recent sent-mail rows
	History(userID string, limit int) ([]*domain.SentEmail, error)

	SaveConfig(userID string, input ConfigInput) (*domain.EmailConfig, error)
	GetConfigs(userID string) ([]*domain.EmailConfig, error)
	DeleteConfig(userID, configID string) error

	// TestConfig verifies the SMTP login without sending anything
	TestConfig(ctx context.Context, userID, configID string) error
}

// SendRequest is one outgoing message
type SendRequest struct {
	To       []string `json:"to"`
	Cc       []string `json:"cc,omitempty"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	HTML     string   `json:"html,omitempty"`
	ConfigID string   `json:"config_id,omitempty"`
	// Attachments are server-side files; never bound from request JSON
	Attachments []smtp.Attachment `json:"-"`
}

// SendResult is returned for a delivered message
type SendResult struct {
	MessageID  string   `json:"message_id"`
	Recipients []string `json:"recipients"`
}

// BulkResult is the per-item outcome of SendBulk
type BulkResult struct {
	To        []string `json:"to"`
	Success   bool     `json:"success"`
	MessageID string   `json:"message_id,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ConfigInput is the plaintext form submitted by the user
type ConfigInput struct {
	ConfigName   string `json:"config_name"`
	SMTPHost     string `json:"smtp_host" binding:"required"`
	SMTPPort     int    `json:"smtp_port" binding:"required"`
	SMTPUser     string `json:"smtp_user" binding:"required"`
	SMTPPassword string `json:"smtp_password" binding:"required"`
	FromName     string `json:"from_name"`
	IsDefault    bool   `json:"is_default"`
}
