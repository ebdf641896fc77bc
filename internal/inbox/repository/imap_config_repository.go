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

// ImapConfigRepository defines the interface for mailbox login storage
type ImapConfigRepository interface {
	// Upsert creates or replaces the config with the same (user_id, config_name)
	Upsert(cfg *domain.ImapConfig) error
	// FindActive returns the user's newest active config
	FindActive(userID string) (*domain.ImapConfig, error)
	FindByUserID(userID string) ([]*domain.ImapConfig, error)
	FindAutoScanSystem() ([]*domain.ImapConfig, error)
	TouchLastScanSystem(id string, at time.Time) error
}

type imapConfigRepository struct {
	db *gorm.DB
}

// NewImapConfigRepository creates a new instance of imapConfigRepository
func NewImapConfigRepository(db *gorm.DB) ImapConfigRepository {
	return &imapConfigRepository{db: db}
}

func (r *imapConfigRepository) Upsert(cfg *domain.ImapConfig) error {
	now := time.Now()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "config_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"imap_host", "imap_port", "imap_user", "imap_password", "use_ssl",
			"auto_scan", "scan_interval_minutes", "is_active", "updated_at",
		}),
	}).Create(cfg).Error
}

func (r *imapConfigRepository) FindActive(userID string) (*domain.ImapConfig, error) {
	var cfg domain.ImapConfig
	err := r.db.Scopes(database.OwnedBy(userID)).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *imapConfigRepository) FindByUserID(userID string) ([]*domain.ImapConfig, error) {
	var cfgs []*domain.ImapConfig
	err := r.db.Scopes(database.OwnedBy(userID)).Order("created_at DESC").Find(&cfgs).Error
	return cfgs, err
}

func (r *imapConfigRepository) FindAutoScanSystem() ([]*domain.ImapConfig, error) {
	var cfgs []*domain.ImapConfig
	err := r.db.Where("auto_scan = ? AND is_active = ?", true, true).Find(&cfgs).Error
	return cfgs, err
}

func (r *imapConfigRepository) TouchLastScanSystem(id string, at time.Time) error {
	return r.db.Model(&domain.ImapConfig{}).Where("id = ?", id).Update("last_scan_at", at).Error
}
