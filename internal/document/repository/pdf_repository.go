package repository

import (
	"errors"
	"time"

	"office-agent/internal/document/domain"
	"office-agent/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PDFRepository defines the interface for generated document metadata
type PDFRepository interface {
	Create(file *domain.PDFFile) error
	FindByID(userID, id string) (*domain.PDFFile, error)
	FindByUserID(userID string) ([]*domain.PDFFile, error)
	Delete(userID, id string) error
}

type pdfRepository struct {
	db *gorm.DB
}

// NewPDFRepository creates a new instance of pdfRepository
func NewPDFRepository(db *gorm.DB) PDFRepository {
	return &pdfRepository{db: db}
}

func (r *pdfRepository) Create(file *domain.PDFFile) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	file.CreatedAt = time.Now()
	file.UpdatedAt = time.Now()
	return r.db.Create(file).Error
}

func (r *pdfRepository) FindByID(userID, id string) (*domain.PDFFile, error) {
	var file domain.PDFFile
	err := r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

func (r *pdfRepository) FindByUserID(userID string) ([]*domain.PDFFile, error) {
	var files []*domain.PDFFile
	err := r.db.Scopes(database.OwnedBy(userID)).Order("created_at DESC").Find(&files).Error
	return files, err
}

func (r *pdfRepository) Delete(userID, id string) error {
	return r.db.Scopes(database.OwnedBy(userID)).Where("id = ?", id).Delete(&domain.PDFFile{}).Error
}
