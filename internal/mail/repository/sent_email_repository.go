package repository

import (
	"time"

	"office-agent/internal/mail/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SentEmailRepository stores the outgoing mail history
type SentEmailRepository interface {
	Create(email *domain.SentEmail) error
	FindByUserID(userID string, limit int) ([]*domain.SentEmail, error)
}

type sentEmailRepository struct {
	db *gorm.DB
}

// NewSentEmailRepository creates a new instance of sentEmailRepository
func NewSentEmailRepository(db *gorm.DB) SentEmailRepository {
	return &sentEmailRepository{db: db}
}

func (r *sentEmailRepository) Create(email *domain.SentEmail) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	now := time.Now()
	email.CreatedAt = now
	if email.SentAt.IsZero() {
		email.SentAt = now
	}
	return r.db.Create(email).Error
}

func (r *sentEmailRepository) FindByUserID(userID string, limit int) ([]*domain.SentEmail, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var emails []*domain.SentEmail
	err := r.db.Scopes(database.OwnedBy(userID)).
		Order("sent_at DESC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}
