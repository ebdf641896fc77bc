package repository

import (
	"errors"
	"time"

	"office-agent/internal/scrape/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScrapeJobRepository defines the interface for scrape job storage
type ScrapeJobRepository interface {
	Create(job *domain.ScrapeJob) error
	Update(job *domain.ScrapeJob) error
	FindByID(userID, id string) (*domain.ScrapeJob, error)
	FindByUserID(userID string, limit int) ([]*domain.ScrapeJob, error)
	// Delete reports whether a row owned by userID was removed
	Delete(userID, id string) (bool, error)
}

type scrapeJobRepository struct {
	db *gorm.DB
}

// NewScrapeJobRepository creates a new instance of scrapeJobRepository
func NewScrapeJobRepository(db *gorm.DB) ScrapeJobRepository {
	return &scrapeJobRepository{db: db}
}

func (r *scrapeJobRepository) Create(job *domain.ScrapeJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()
	return r.db.Create(job).Error
}

func (r *scrapeJobRepository) Update(job *domain.ScrapeJob) error {
	job.UpdatedAt = time.Now()
	return r.db.Save(job).Error
}

func (r *scrapeJobRepository) FindByID(userID, id string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *scrapeJobRepository) Delete(userID, id string) (bool, error) {
	res := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).Delete(&domain.ScrapeJob{})
	return res.RowsAffected > 0, res.Error
}

func (r *scrapeJobRepository) FindByUserID(userID string, limit int) ([]*domain.ScrapeJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var jobs []*domain.ScrapeJob
	err := r.db.Scopes(database.OwnedBy(userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
