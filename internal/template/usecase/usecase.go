package usecase

import (
	"context"
	"io"

	"office-agent/internal/template/domain"
)

// TemplateUsecase defines the interface for email templates and their attachments
type TemplateUsecase interface {
	List(userID, category string) ([]*domain.EmailTemplate, error)
	Create(userID string, input CreateInput) (*domain.EmailTemplate, error)
	Update(userID, id string, input UpdateInput) (*domain.EmailTemplate, error)
	Delete(userID, id string) error

	// Use counts one use of the template. With recipients it also fills the
	// placeholders and sends the result through the user's SMTP config.
	Use(ctx context.Context, userID, id string, input UseInput) (*UseResult, error)

	// Generate drafts a template for a category with the AI provider
	Generate(ctx context.Context, category, extraContext string) (*Generated, error)

	SaveAttachment(userID string, upload Upload) (*domain.EmailAttachment, error)
	GetAttachment(userID, id string) (*domain.EmailAttachment, error)
}

type CreateInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Subject     string   `json:"subject" binding:"required"`
	Body        string   `json:"body" binding:"required"`
	Category    string   `json:"category"`
	Variables   []string `json:"variables"`
}

// UpdateInput is a partial update; nil fields are left alone
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	Body        *string `json:"body"`
	Category    *string `json:"category"`
	IsFavorite  *bool   `json:"is_favorite"`
}

type UseInput struct {
	To            []string          `json:"to"`
	Cc            []string          `json:"cc"`
	Variables     map[string]string `json:"variables"`
	ConfigID      string            `json:"config_id"`
	AttachmentIDs []string          `json:"attachment_ids"`
}

type UseResult struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	// Missing lists placeholders that had no value
	Missing []string `json:"missing,omitempty"`
}

type Generated struct {
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Category  string   `json:"category"`
	Variables []string `json:"variables"`
}

// Upload is one file received from the client
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}
