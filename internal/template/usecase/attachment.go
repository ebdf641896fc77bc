package usecase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"office-agent/internal/template/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxAttachmentSize is the largest accepted upload
const MaxAttachmentSize = 10 << 20

// allowedTypes maps each accepted extension to the MIME types a client may declare for it
var allowedTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".xls":  {"application/vnd.ms-excel"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".txt":  {"text/plain"},
	".zip":  {"application/zip", "application/x-zip-compressed"},
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func attachmentDir(uploadsDir string) string {
	return filepath.Join(uploadsDir, "attachments")
}

// checkType accepts a file when its extension is allowed and the declared
// MIME type, if specific, belongs to that extension.
func checkType(filename, mimeType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	accepted, ok := allowedTypes[ext]
	if !ok {
		return fmt.Errorf("%w: %q is not allowed", domain.ErrUnsupportedFile, ext)
	}
	mimeType, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		return nil
	}
	for _, m := range accepted {
		if m == mimeType {
			return nil
		}
	}
	return fmt.Errorf("%w: %s does not match %s", domain.ErrUnsupportedFile, mimeType, ext)
}

func (u *templateUsecase) SaveAttachment(userID string, upload Upload) (*domain.EmailAttachment, error) {
	name := filepath.Base(strings.TrimSpace(upload.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidRequest)
	}
	if upload.Size > MaxAttachmentSize {
		return nil, domain.ErrFileTooLarge
	}
	if err := checkType(name, upload.MimeType); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	stored := fmt.Sprintf("%d-%s-%s", u.now().UnixMilli(), uuid.New().String()[:8], unsafeName.ReplaceAllString(name, "_"))
	path := filepath.Join(u.dir, stored)

	written, err := writeLimited(path, upload.Content, MaxAttachmentSize)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	a := &domain.EmailAttachment{
		UserID:   userID,
		Filename: name,
		FilePath: path,
		FileSize: written,
		MimeType: upload.MimeType,
	}
	if err := u.attachments.Create(a); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	log.Info().Str("attachment_id", a.ID).Int64("size", written).Msg("[Template] Attachment uploaded")
	return a, nil
}

// writeLimited copies at most limit bytes; a longer stream is ErrFileTooLarge
func writeLimited(path string, r io.Reader, limit int64) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to store attachment: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		return 0, fmt.Errorf("failed to store attachment: %w", err)
	}
	if n > limit {
		return 0, domain.ErrFileTooLarge
	}
	return n, nil
}

func (u *templateUsecase) GetAttachment(userID, id string) (*domain.EmailAttachment, error) {
	a, err := u.attachments.FindByID(userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	if a == nil {
		return nil, domain.ErrAttachmentNotFound
	}
	if _, err := os.Stat(a.FilePath); err != nil {
		log.Warn().Err(err).Str("attachment_id", id).Msg("[Template] Attachment file missing on disk")
		return nil, domain.ErrAttachmentNotFound
	}
	return a, nil
}
