package repository

import (
	"errors"
	"time"

	"office-agent/internal/cron/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormCronJobRepository implements CronJobRepository using GORM
type gormCronJobRepository struct {
	db *gorm.DB
}

// NewGormCronJobRepository creates a new GORM-based CronJobRepository
func NewGormCronJobRepository(db *gorm.DB) CronJobRepository {
	return &gormCronJobRepository{db: db}
}

func (r *gormCronJobRepository) Create(job *domain.CronJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = domain.StatusPending
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()
	return r.db.Create(job).Error
}

func (r *gormCronJobRepository) FindByID(userID, id string) (*domain.CronJob, error) {
	var job domain.CronJob
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *gormCronJobRepository) FindByUserID(userID string, enabled *bool) ([]*domain.CronJob, error) {
	var jobs []*domain.CronJob

	query := r.db.Model(&domain.CronJob{}).Scopes(database.OwnedBy(userID))
	if enabled != nil {
		query = query.Where("enabled = ?", *enabled)
	}

	err := query.Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (r *gormCronJobRepository) Update(job *domain.CronJob) error {
	job.UpdatedAt = time.Now()
	return r.db.Save(job).Error
}

func (r *gormCronJobRepository) Delete(userID, id string) error {
	return r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).Delete(&domain.CronJob{}).Error
}

func (r *gormCronJobRepository) FindEnabledSystem() ([]*domain.CronJob, error) {
	var jobs []*domain.CronJob
	err := r.db.Where("enabled = ?", true).Order("created_at ASC").Find(&jobs).Error
	return jobs, err
}

func (r *gormCronJobRepository) SetStatusSystem(id string, status domain.JobStatus) error {
	return r.db.Model(&domain.CronJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormCronJobRepository) RecordRunSystem(id string, status domain.JobStatus, lastError string, at time.Time) error {
	return r.db.Model(&domain.CronJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"last_run":        at,
			"last_error":      lastError,
			"execution_count": gorm.Expr("execution_count + ?", 1),
			"updated_at":      time.Now(),
		}).Error
}
