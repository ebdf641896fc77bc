package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"office-agent/internal/document/domain"
	"office-agent/internal/document/repository"
	"office-agent/pkg/pdf"

	"github.com/rs/zerolog/log"
)

// DocumentUsecase defines the interface for PDF generation and storage
type DocumentUsecase interface {
	// Generate renders content into <uploads>/pdfs and records its metadata
	Generate(userID, title, content string) (*domain.PDFFile, error)
	// GenerateStructured renders headed sections. name overrides the title in the filename.
	GenerateStructured(userID, title, name string, sections []pdf.Section) (*domain.PDFFile, error)
	List(userID string) ([]*domain.PDFFile, error)
	// Get returns the metadata and the on-disk path of a document
	Get(userID, id string) (*domain.PDFFile, error)
	// Delete removes both the row and the file
	Delete(userID, id string) error
}

type documentUsecase struct {
	repo     repository.PDFRepository
	renderer pdf.Renderer
	dir      string
	now      func() time.Time
}

// NewDocumentUsecase creates a new instance of documentUsecase
func NewDocumentUsecase(repo repository.PDFRepository, renderer pdf.Renderer, uploadsDir string) DocumentUsecase {
	return &documentUsecase{
		repo:     repo,
		renderer: renderer,
		dir:      filepath.Join(uploadsDir, "pdfs"),
		now:      time.Now,
	}
}

func (u *documentUsecase) Generate(userID, title, content string) (*domain.PDFFile, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidRequest)
	}

	return u.store(userID, title, title, func(path string) (string, error) {
		return u.renderer.Render(content, path, pdf.Options{Title: title})
	})
}

func (u *documentUsecase) GenerateStructured(userID, title, name string, sections []pdf.Section) (*domain.PDFFile, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: at least one section is required", domain.ErrInvalidRequest)
	}
	for i, section := range sections {
		if strings.TrimSpace(section.Heading) == "" && strings.TrimSpace(section.Content) == "" {
			return nil, fmt.Errorf("%w: section %d is empty", domain.ErrInvalidRequest, i)
		}
	}
	if name = strings.TrimSpace(name); name == "" {
		name = title
	}

	return u.store(userID, title, name, func(path string) (string, error) {
		return u.renderer.RenderSections(sections, path, pdf.Options{Title: title})
	})
}

// store renders into a per-user filename and records the metadata, removing
// the file again if the row cannot be written
func (u *documentUsecase) store(userID, title, name string, render func(path string) (string, error)) (*domain.PDFFile, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pdf directory: %w", err)
	}

	filename := pdf.Filename(userID, name, u.now())
	path, err := render(filepath.Join(u.dir, filename))
	if err != nil {
		return nil, err
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	file := &domain.PDFFile{
		UserID:   userID,
		Title:    title,
		Filename: filename,
		FilePath: path,
		FileSize: size,
	}
	if err := u.repo.Create(file); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to save pdf metadata: %w", err)
	}

	log.Info().Str("user_id", userID).Str("file", filename).Int64("bytes", size).Msg("[Document] PDF generated")
	return file, nil
}

func (u *documentUsecase) List(userID string) ([]*domain.PDFFile, error) {
	return u.repo.FindByUserID(userID)
}

func (u *documentUsecase) Get(userID, id string) (*domain.PDFFile, error) {
	file, err := u.repo.FindByID(userID, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, domain.ErrPDFNotFound
	}
	return file, nil
}

func (u *documentUsecase) Delete(userID, id string) error {
	file, err := u.Get(userID, id)
	if err != nil {
		return err
	}
	if err := os.Remove(file.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", file.FilePath).Msg("[Document] Failed to remove file")
	}
	return u.repo.Delete(userID, id)
}
