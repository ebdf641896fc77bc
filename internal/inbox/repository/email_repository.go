package repository

import (
	"errors"
	"time"

	"office-agent/internal/inbox/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InboxEmailRepository defines the interface for triaged inbox storage
type InboxEmailRepository interface {
	ExistsByMessageID(userID, messageID string) (bool, error)
	// InsertIfAbsent reports false when (user_id, message_id) already exists
	InsertIfAbsent(email *domain.InboxEmail) (bool, error)
	FindByID(userID, id string) (*domain.InboxEmail, error)
	List(userID string, filter domain.EmailFilter) ([]*domain.InboxEmail, error)
	UpdateFlags(userID, id string, flags domain.FlagUpdate) (bool, error)
	// Recent returns the newest non-archived messages, used as the fuzzy search corpus
	Recent(userID string, limit int) ([]*domain.InboxEmail, error)
	Stats(userID string) (*domain.Stats, error)
}

type inboxEmailRepository struct {
	db *gorm.DB
}

// NewInboxEmailRepository creates a new instance of inboxEmailRepository
func NewInboxEmailRepository(db *gorm.DB) InboxEmailRepository {
	return &inboxEmailRepository{db: db}
}

func (r *inboxEmailRepository) ExistsByMessageID(userID, messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.InboxEmail{}).
		Scopes(database.OwnedBy(userID)).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *inboxEmailRepository) InsertIfAbsent(email *domain.InboxEmail) (bool, error) {
	now := time.Now()
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	email.CreatedAt = now
	email.UpdatedAt = now

	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "message_id"}},
		DoNothing: true,
	}).Create(email)
	return res.RowsAffected > 0, res.Error
}

func (r *inboxEmailRepository) FindByID(userID, id string) (*domain.InboxEmail, error) {
	var email domain.InboxEmail
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *inboxEmailRepository) List(userID string, filter domain.EmailFilter) ([]*domain.InboxEmail, error) {
	query := r.db.Scopes(database.OwnedBy(userID))

	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.Priority != "" {
		query = query.Where("ai_priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("ai_category = ?", filter.Category)
	}
	archived := false
	if filter.Archived != nil {
		archived = *filter.Archived
	}
	query = query.Where("is_archived = ?", archived)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var emails []*domain.InboxEmail
	err := query.Order("received_at DESC").Limit(limit).Find(&emails).Error
	return emails, err
}

func (r *inboxEmailRepository) UpdateFlags(userID, id string, flags domain.FlagUpdate) (bool, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if flags.IsRead != nil {
		updates["is_read"] = *flags.IsRead
	}
	if flags.IsStarred != nil {
		updates["is_starred"] = *flags.IsStarred
	}
	if flags.IsArchived != nil {
		updates["is_archived"] = *flags.IsArchived
	}

	res := r.db.Model(&domain.InboxEmail{}).
		Scopes(database.OwnedBy(userID)).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *inboxEmailRepository) Recent(userID string, limit int) ([]*domain.InboxEmail, error) {
	var emails []*domain.InboxEmail
	err := r.db.Scopes(database.OwnedBy(userID)).
		Where("is_archived = ?", false).
		Order("received_at DESC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *inboxEmailRepository) Stats(userID string) (*domain.Stats, error) {
	var stats domain.Stats
	count := func(model interface{}, dst *int64, where string, args ...interface{}) error {
		q := r.db.Model(model).Scopes(database.OwnedBy(userID))
		if where != "" {
			q = q.Where(where, args...)
		}
		return q.Count(dst).Error
	}

	if err := count(&domain.InboxEmail{}, &stats.Unread, "is_read = ?", false); err != nil {
		return nil, err
	}
	if err := count(&domain.InboxEmail{}, &stats.Urgent, "ai_priority = ?", domain.PriorityUrgent); err != nil {
		return nil, err
	}
	if err := count(&domain.AIDraft{}, &stats.PendingDrafts, "status = ?", domain.DraftPending); err != nil {
		return nil, err
	}
	if err := count(&domain.InboxEmail{}, &stats.Total, ""); err != nil {
		return nil, err
	}
	return &stats, nil
}
