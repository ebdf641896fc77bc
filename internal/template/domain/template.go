package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	ErrTemplateNotFound   = errors.New("email template not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidRequest     = errors.New("invalid template request")
	ErrUnsupportedFile    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file exceeds the upload limit")
)

// EmailTemplate is a reusable subject/body pair with {{variable}} placeholders
type EmailTemplate struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"index;not null"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	Subject     string     `json:"subject" gorm:"not null"`
	Body        string     `json:"body" gorm:"type:text;not null"`
	Category    string     `json:"category" gorm:"index"`
	Variables   []string   `json:"variables" gorm:"type:jsonb;serializer:json"`
	IsFavorite  bool       `json:"is_favorite" gorm:"default:false"`
	UsageCount  int        `json:"usage_count" gorm:"not null;default:0"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (EmailTemplate) TableName() string { return "email_templates" }

// EmailAttachment is an uploaded file that templates can send along
type EmailAttachment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Filename  string    `json:"filename" gorm:"not null"`
	FilePath  string    `json:"-" gorm:"not null"`
	FileSize  int64     `json:"file_size"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailAttachment) TableName() string { return "email_attachments" }

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// ExtractVariables lists the distinct placeholder names of the given texts, sorted
func ExtractVariables(texts ...string) []string {
	seen := map[string]bool{}
	vars := []string{}
	for _, text := range texts {
		for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				vars = append(vars, m[1])
			}
		}
	}
	sort.Strings(vars)
	return vars
}

// Fill replaces known placeholders and returns the names left unresolved
func Fill(text string, values map[string]string) (string, []string) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := values[name]; ok {
			return v
		}
		missing = append(missing, name)
		return match
	})
	return out, missing
}
