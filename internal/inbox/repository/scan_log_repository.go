package repository

import (
	"time"

	"office-agent/internal/inbox/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanLogRepository writes scan bookkeeping. Scans run for any user from the
// background scheduler, so these are system writes.
type ScanLogRepository interface {
	CreateSystem(log *domain.EmailScanLog) error
	UpdateSystem(log *domain.EmailScanLog) error
}

type scanLogRepository struct {
	db *gorm.DB
}

func NewScanLogRepository(db *gorm.DB) ScanLogRepository {
	return &scanLogRepository{db: db}
}

func (r *scanLogRepository) CreateSystem(log *domain.EmailScanLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	log.CreatedAt = time.Now()
	return r.db.Create(log).Error
}

func (r *scanLogRepository) UpdateSystem(log *domain.EmailScanLog) error {
	return r.db.Save(log).Error
}
