package usecase

import (
	"context"

	"office-agent/internal/inbox/domain"
)

// InboxUsecase defines the interface for the inbox triage pipeline
type InboxUsecase interface {
	// ScanInbox fetches the newest messages, classifies the unseen ones and
	// drafts replies where the model suggests one
	ScanInbox(ctx context.Context, userID string) (*ScanResult, error)

	// SendApprovedDraft sends the draft through the user's default SMTP config
	SendApprovedDraft(ctx context.Context, userID, draftID string) (*domain.AIDraft, error)
	UpdateDraft(ctx context.Context, userID, draftID string, patch DraftPatch) (*domain.AIDraft, error)
	RejectDraft(ctx context.Context, userID, draftID string) (*domain.AIDraft, error)
	ListDrafts(userID string, status domain.DraftStatus) ([]*domain.AIDraft, error)

	ListEmails(userID string, filter domain.EmailFilter) ([]*domain.InboxEmail, error)
	GetEmail(userID, emailID string) (*EmailDetail, error)
	UpdateEmailFlags(userID, emailID string, flags domain.FlagUpdate) (*domain.InboxEmail, error)
	SearchEmails(userID, query string, limit int) ([]*SearchResult, error)
	Stats(userID string) (*domain.Stats, error)

	SaveImapConfig(userID string, input ImapConfigInput) (*domain.ImapConfig, error)
	GetImapConfigs(userID string) ([]*domain.ImapConfig, error)
}

// ScanResult summarises one scan
type ScanResult struct {
	Success         bool   `json:"success"`
	EmailsFound     int    `json:"emails_found"`
	EmailsNew       int    `json:"emails_new"`
	EmailsProcessed int    `json:"emails_processed"`
	DraftsCreated   int    `json:"drafts_created"`
	UrgentEmails    int    `json:"urgent_emails"`
	ScanLogID       string `json:"scan_log_id"`
}

// DraftPatch is a user edit of a draft; nil fields are left alone
type DraftPatch struct {
	Status     *domain.DraftStatus `json:"status"`
	EditedBody *string             `json:"edited_body"`
}

// EmailDetail is a message with its most recent draft, if any
type EmailDetail struct {
	Email *domain.InboxEmail `json:"email"`
	Draft *domain.AIDraft    `json:"draft"`
}

// SearchResult is a message ranked by relevance
type SearchResult struct {
	Email *domain.InboxEmail `json:"email"`
	Score float64            `json:"score"`
}

// ImapConfigInput is the plaintext form submitted by the user
type ImapConfigInput struct {
	ConfigName          string `json:"config_name"`
	ImapHost            string `json:"imap_host" binding:"required"`
	ImapPort            int    `json:"imap_port"`
	ImapUser            string `json:"imap_user" binding:"required"`
	ImapPassword        string `json:"imap_password" binding:"required"`
	UseSSL              *bool  `json:"use_ssl"`
	AutoScan            *bool  `json:"auto_scan"`
	ScanIntervalMinutes int    `json:"scan_interval_minutes"`
}
