package repository

import (
	"errors"
	"time"

	"office-agent/internal/mail/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmailConfigRepository defines the interface for SMTP configuration storage
type EmailConfigRepository interface {
	// Upsert creates or replaces the config with the same (user_id, config_name)
	Upsert(cfg *domain.EmailConfig) error
	// FindDefault returns the default config, or the oldest one when none is flagged
	FindDefault(userID string) (*domain.EmailConfig, error)
	FindByID(userID, id string) (*domain.EmailConfig, error)
	FindByUserID(userID string) ([]*domain.EmailConfig, error)
	// Delete reports whether a row was removed
	Delete(userID, id string) (bool, error)
}

type emailConfigRepository struct {
	db *gorm.DB
}

// NewEmailConfigRepository creates a new instance of emailConfigRepository
func NewEmailConfigRepository(db *gorm.DB) EmailConfigRepository {
	return &emailConfigRepository{db: db}
}

func (r *emailConfigRepository) Upsert(cfg *domain.EmailConfig) error {
	now := time.Now()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	return r.db.Transaction(func(tx *gorm.DB) error {
		// only one default per user
		if cfg.IsDefault {
			if err := tx.Model(&domain.EmailConfig{}).
				Where("user_id = ? AND config_name <> ?", cfg.UserID, cfg.ConfigName).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "config_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"smtp_host", "smtp_port", "smtp_user", "smtp_password", "from_name", "is_default", "updated_at",
			}),
		}).Create(cfg).Error
	})
}

func (r *emailConfigRepository) FindDefault(userID string) (*domain.EmailConfig, error) {
	var cfg domain.EmailConfig
	err := r.db.Scopes(database.OwnedBy(userID)).
		Order("is_default DESC, created_at ASC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *emailConfigRepository) FindByID(userID, id string) (*domain.EmailConfig, error) {
	var cfg domain.EmailConfig
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *emailConfigRepository) FindByUserID(userID string) ([]*domain.EmailConfig, error) {
	var cfgs []*domain.EmailConfig
	err := r.db.Scopes(database.OwnedBy(userID)).
		Order("is_default DESC, created_at ASC").
		Find(&cfgs).Error
	return cfgs, err
}

func (r *emailConfigRepository) Delete(userID, id string) (bool, error) {
	res := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).Delete(&domain.EmailConfig{})
	return res.RowsAffected > 0, res.Error
}
