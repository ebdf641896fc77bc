package domain

import (
	"errors"
	"time"
)

var (
	ErrPDFNotFound    = errors.New("pdf not found")
	ErrInvalidRequest = errors.New("invalid pdf request")
)

// PDFFile is the metadata of a generated document; the bytes live on disk
type PDFFile struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Filename  string    `json:"filename" gorm:"not null"`
	FilePath  string    `json:"-" gorm:"not null"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PDFFile) TableName() string { return "pdf_files" }
