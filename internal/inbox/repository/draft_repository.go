package repository

import (
	"errors"
	"time"

	"office-agent/internal/inbox/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DraftRepository defines the interface for AI reply drafts
type DraftRepository interface {
	Create(draft *domain.AIDraft) error
	FindByID(userID, id string) (*domain.AIDraft, error)
	FindLatestForEmail(userID, emailID string) (*domain.AIDraft, error)
	// ListByStatus preloads the source email for display
	ListByStatus(userID string, status domain.DraftStatus) ([]*domain.AIDraft, error)
	Update(draft *domain.AIDraft) error
	// MarkSent only succeeds while the draft is not yet sent
	MarkSent(userID, id, messageID string, at time.Time) (bool, error)
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new instance of draftRepository
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) Create(draft *domain.AIDraft) error {
	now := time.Now()
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	draft.CreatedAt = now
	draft.UpdatedAt = now
	return r.db.Omit("InboxEmail").Create(draft).Error
}

func (r *draftRepository) FindByID(userID, id string) (*domain.AIDraft, error) {
	var draft domain.AIDraft
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) FindLatestForEmail(userID, emailID string) (*domain.AIDraft, error) {
	var draft domain.AIDraft
	err := r.db.Scopes(database.OwnedBy(userID)).
		Where("inbox_email_id = ?", emailID).
		Order("created_at DESC").
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) ListByStatus(userID string, status domain.DraftStatus) ([]*domain.AIDraft, error) {
	var drafts []*domain.AIDraft
	err := r.db.Scopes(database.OwnedBy(userID)).
		Preload("InboxEmail").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&drafts).Error
	return drafts, err
}

func (r *draftRepository) Update(draft *domain.AIDraft) error {
	draft.UpdatedAt = time.Now()
	return r.db.Omit("InboxEmail").Save(draft).Error
}

func (r *draftRepository) MarkSent(userID, id, messageID string, at time.Time) (bool, error) {
	res := r.db.Model(&domain.AIDraft{}).
		Scopes(database.OwnedBy(userID)).
		Where("id = ? AND status <> ?", id, domain.DraftSent).
		Updates(map[string]interface{}{
			"status":          domain.DraftSent,
			"sent_at":         at,
			"sent_message_id": messageID,
			"updated_at":      at,
		})
	return res.RowsAffected > 0, res.Error
}
