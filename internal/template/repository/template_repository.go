package repository

import (
	"errors"
	"time"

	"office-agent/internal/template/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateRepository defines the interface for email template storage
type TemplateRepository interface {
	Create(t *domain.EmailTemplate) error
	Update(t *domain.EmailTemplate) error
	FindByID(userID, id string) (*domain.EmailTemplate, error)
	// List returns the user's templates, most recently updated first
	List(userID, category string) ([]*domain.EmailTemplate, error)
	// Delete reports whether a row was removed
	Delete(userID, id string) (bool, error)
	// IncrementUsage bumps usage_count in SQL and reports whether the row exists
	IncrementUsage(userID, id string, at time.Time) (bool, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new instance of templateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(t *domain.EmailTemplate) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return r.db.Create(t).Error
}

func (r *templateRepository) Update(t *domain.EmailTemplate) error {
	t.UpdatedAt = time.Now()
	return r.db.Save(t).Error
}

func (r *templateRepository) FindByID(userID, id string) (*domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *templateRepository) List(userID, category string) ([]*domain.EmailTemplate, error) {
	query := r.db.Scopes(database.OwnedBy(userID))
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var templates []*domain.EmailTemplate
	err := query.Order("updated_at DESC").Find(&templates).Error
	return templates, err
}

func (r *templateRepository) Delete(userID, id string) (bool, error) {
	res := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).Delete(&domain.EmailTemplate{})
	return res.RowsAffected > 0, res.Error
}

func (r *templateRepository) IncrementUsage(userID, id string, at time.Time) (bool, error) {
	res := r.db.Model(&domain.EmailTemplate{}).
		Scopes(database.OwnedBy(userID)).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": at,
		})
	return res.RowsAffected > 0, res.Error
}
