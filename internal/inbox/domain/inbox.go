package domain

import (
	"errors"
	"time"
)

var (
	ErrNoImapConfig      = errors.New("no active IMAP configuration found")
	ErrEmailNotFound     = errors.New("email not found")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrDraftAlreadySent  = errors.New("draft has already been sent")
	ErrDraftRejected     = errors.New("draft was rejected")
	ErrInvalidTransition = errors.New("invalid draft status transition")
	ErrInvalidRequest    = errors.New("invalid inbox request")
)

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

type Category string

const (
	CategoryQuestion  Category = "question"
	CategoryRequest   Category = "request"
	CategoryComplaint Category = "complaint"
	CategoryInfo      Category = "info"
	CategorySpam      Category = "spam"
	CategoryOther     Category = "other"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type SuggestedAction string

const (
	ActionReply   SuggestedAction = "reply"
	ActionForward SuggestedAction = "forward"
	ActionArchive SuggestedAction = "archive"
	ActionDelete  SuggestedAction = "delete"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryQuestion, CategoryRequest, CategoryComplaint, CategoryInfo, CategorySpam, CategoryOther:
		return true
	}
	return false
}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

func (a SuggestedAction) Valid() bool {
	switch a {
	case ActionReply, ActionForward, ActionArchive, ActionDelete:
		return true
	}
	return false
}

// Classification is the AI triage result for one message
type Classification struct {
	Priority        Priority        `json:"priority"`
	Category        Category        `json:"category"`
	Sentiment       Sentiment       `json:"sentiment"`
	Summary         string          `json:"summary"`
	SuggestedAction SuggestedAction `json:"suggested_action"`
}

// ImapConfig is a user's mailbox login. The password is stored encrypted.
type ImapConfig struct {
	ID                  string     `json:"id" gorm:"primaryKey"`
	UserID              string     `json:"user_id" gorm:"not null;uniqueIndex:idx_imap_config_user_name"`
	ConfigName          string     `json:"config_name" gorm:"not null;uniqueIndex:idx_imap_config_user_name"`
	ImapHost            string     `json:"imap_host" gorm:"not null"`
	ImapPort            int        `json:"imap_port" gorm:"not null;default:993"`
	ImapUser            string     `json:"imap_user" gorm:"not null"`
	ImapPassword        string     `json:"-" gorm:"not null"`
	UseSSL              bool       `json:"use_ssl"`
	AutoScan            bool       `json:"auto_scan"`
	ScanIntervalMinutes int        `json:"scan_interval_minutes" gorm:"default:5"`
	LastScanAt          *time.Time `json:"last_scan_at,omitempty"`
	IsActive            bool       `json:"is_active" gorm:"index"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (ImapConfig) TableName() string { return "user_imap_configs" }

// DueForScan reports whether an auto-scan config's interval has elapsed
func (c *ImapConfig) DueForScan(now time.Time) bool {
	if !c.AutoScan || !c.IsActive {
		return false
	}
	if c.LastScanAt == nil {
		return true
	}
	interval := time.Duration(c.ScanIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return !c.LastScanAt.Add(interval).After(now)
}

// InboxEmail is a triaged inbox message. (user_id, message_id) is unique.
type InboxEmail struct {
	ID                string          `json:"id" gorm:"primaryKey"`
	UserID            string          `json:"user_id" gorm:"not null;uniqueIndex:idx_inbox_user_message"`
	MessageID         string          `json:"message_id" gorm:"not null;uniqueIndex:idx_inbox_user_message"`
	FromAddress       string          `json:"from_address"`
	FromName          string          `json:"from_name,omitempty"`
	ToAddress         string          `json:"to_address"`
	Subject           string          `json:"subject"`
	BodyText          string          `json:"body_text"`
	BodyHTML          string          `json:"body_html,omitempty"`
	ReceivedAt        time.Time       `json:"received_at" gorm:"index"`
	HasAttachments    bool            `json:"has_attachments"`
	AttachmentsCount  int             `json:"attachments_count"`
	IsRead            bool            `json:"is_read" gorm:"default:false"`
	IsStarred         bool            `json:"is_starred" gorm:"default:false"`
	IsArchived        bool            `json:"is_archived" gorm:"default:false"`
	AIAnalyzed        bool            `json:"ai_analyzed"`
	AIPriority        Priority        `json:"ai_priority" gorm:"index"`
	AICategory        Category        `json:"ai_category"`
	AISentiment       Sentiment       `json:"ai_sentiment"`
	AISummary         string          `json:"ai_summary"`
	AISuggestedAction SuggestedAction `json:"ai_suggested_action"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (InboxEmail) TableName() string { return "emails_inbox" }

// DraftStatus is the lifecycle state of an AI draft
type DraftStatus string

const (
	DraftPending  DraftStatus = "pending"
	DraftEdited   DraftStatus = "edited"
	DraftApproved DraftStatus = "approved"
	DraftRejected DraftStatus = "rejected"
	DraftSent     DraftStatus = "sent"
)

var draftTransitions = map[DraftStatus][]DraftStatus{
	DraftPending:  {DraftEdited, DraftApproved, DraftRejected, DraftSent},
	DraftEdited:   {DraftEdited, DraftApproved, DraftRejected, DraftSent},
	DraftApproved: {DraftSent, DraftEdited},
}

// CanTransition reports whether a draft may move from s to next
func (s DraftStatus) CanTransition(next DraftStatus) bool {
	for _, allowed := range draftTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AIDraft is a suggested reply awaiting the user's decision
type AIDraft struct {
	ID            string      `json:"id" gorm:"primaryKey"`
	UserID        string      `json:"user_id" gorm:"index;not null"`
	InboxEmailID  string      `json:"inbox_email_id" gorm:"index;not null"`
	ToAddress     string      `json:"to_address" gorm:"not null"`
	CcAddresses   []string    `json:"cc_addresses,omitempty" gorm:"type:jsonb;serializer:json"`
	Subject       string      `json:"subject"`
	Body          string      `json:"body"`
	EditedBody    string      `json:"edited_body,omitempty"`
	UserEdited    bool        `json:"user_edited" gorm:"default:false"`
	AIConfidence  float64     `json:"ai_confidence" gorm:"default:0.8"`
	AIReasoning   string      `json:"ai_reasoning,omitempty"`
	Tone          string      `json:"tone" gorm:"default:professional"`
	Status        DraftStatus `json:"status" gorm:"index;not null;default:pending"`
	SentAt        *time.Time  `json:"sent_at,omitempty"`
	SentMessageID string      `json:"sent_message_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	InboxEmail *InboxEmail `json:"inbox_email,omitempty" gorm:"foreignKey:InboxEmailID"`
}

func (AIDraft) TableName() string { return "ai_email_drafts" }

// BodyToSend is the user's edit when there is one
func (d *AIDraft) BodyToSend() string {
	if d.UserEdited && d.EditedBody != "" {
		return d.EditedBody
	}
	return d.Body
}

// Scan log status values
const (
	ScanRunning   = "running"
	ScanCompleted = "completed"
	ScanFailed    = "failed"
)

// EmailScanLog records one scan run
type EmailScanLog struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"index;not null"`
	ImapConfigID    string     `json:"imap_config_id" gorm:"index"`
	ScanStartedAt   time.Time  `json:"scan_started_at"`
	ScanCompletedAt *time.Time `json:"scan_completed_at,omitempty"`
	EmailsFound     int        `json:"emails_found"`
	EmailsNew       int        `json:"emails_new"`
	EmailsProcessed int        `json:"emails_processed"`
	Status          string     `json:"status" gorm:"not null"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (EmailScanLog) TableName() string { return "email_scan_logs" }

// Stats is the inbox dashboard summary
type Stats struct {
	Unread        int64 `json:"unread"`
	Urgent        int64 `json:"urgent"`
	PendingDrafts int64 `json:"pending_drafts"`
	Total         int64 `json:"total"`
}

// EmailFilter narrows ListEmails. Archived nil means "not archived".
type EmailFilter struct {
	UnreadOnly bool
	Priority   Priority
	Category   Category
	Archived   *bool
	Limit      int
}

// FlagUpdate carries the flags a caller wants changed
type FlagUpdate struct {
	IsRead     *bool `json:"is_read"`
	IsStarred  *bool `json:"is_starred"`
	IsArchived *bool `json:"is_archived"`
}

// Empty reports whether no flag is set
func (f FlagUpdate) Empty() bool {
	return f.IsRead == nil && f.IsStarred == nil && f.IsArchived == nil
}
