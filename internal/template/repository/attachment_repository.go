package repository

import (
	"errors"
	"time"

	"office-agent/internal/template/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttachmentRepository defines the interface for uploaded attachment metadata
type AttachmentRepository interface {
	Create(a *domain.EmailAttachment) error
	FindByID(userID, id string) (*domain.EmailAttachment, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(a *domain.EmailAttachment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now()
	return r.db.Create(a).Error
}

func (r *attachmentRepository) FindByID(userID, id string) (*domain.EmailAttachment, error) {
	var a domain.EmailAttachment
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
