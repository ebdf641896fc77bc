package usecase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"office-agent/internal/document/domain"
	"office-agent/pkg/pdf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	files map[string]*domain.PDFFile
}

func (m *memRepo) Create(f *domain.PDFFile) error {
	f.ID = "pdf-" + f.Filename
	m.files[f.ID] = f
	return nil
}

func (m *memRepo) FindByID(userID, id string) (*domain.PDFFile, error) {
	if f, ok := m.files[id]; ok && f.UserID == userID {
		return f, nil
	}
	return nil, nil
}

func (m *memRepo) FindByUserID(userID string) ([]*domain.PDFFile, error) {
	var out []*domain.PDFFile
	for _, f := range m.files {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(userID, id string) error {
	delete(m.files, id)
	return nil
}

func newUsecase(t *testing.T) (*documentUsecase, *memRepo, string) {
	t.Helper()
	dir := t.TempDir()
	repo := &memRepo{files: map[string]*domain.PDFFile{}}
	uc := NewDocumentUsecase(repo, pdf.NewRenderer(), dir).(*documentUsecase)
	uc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return uc, repo, dir
}

func TestGenerate_WritesFileAndMetadata(t *testing.T) {
	uc, repo, dir := newUsecase(t)

	file, err := uc.Generate("u1", "Q3 Report!", "Revenue up.\n\nCosts down.")
	require.NoError(t, err)

	assert.Equal(t, "u1_1700000000123_Q3_Report_.pdf", file.Filename)
	assert.Equal(t, filepath.Join(dir, "pdfs", file.Filename), file.FilePath)
	assert.Greater(t, file.FileSize, int64(0))
	assert.Len(t, repo.files, 1)

	data, err := os.ReadFile(file.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerate_Validation(t *testing.T) {
	uc, repo, _ := newUsecase(t)

	_, err := uc.Generate("u1", "  ", "body")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = uc.Generate("u1", "Title", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, repo.files)
}

func TestGetAndDelete(t *testing.T) {
	uc, repo, _ := newUsecase(t)

	file, err := uc.Generate("u1", "Notes", "hello")
	require.NoError(t, err)

	_, err = uc.Get("u2", file.ID)
	assert.ErrorIs(t, err, domain.ErrPDFNotFound)

	require.NoError(t, uc.Delete("u1", file.ID))
	assert.Empty(t, repo.files)
	_, err = os.Stat(file.FilePath)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, uc.Delete("u1", file.ID), domain.ErrPDFNotFound)
}

func TestGenerate_SameTitleSameInstantDifferentUsers(t *testing.T) {
	uc, repo, _ := newUsecase(t)

	a, err := uc.Generate("alice", "Report", "from alice")
	require.NoError(t, err)
	b, err := uc.Generate("bob", "Report", "from bob")
	require.NoError(t, err)

	assert.NotEqual(t, a.FilePath, b.FilePath)
	assert.Len(t, repo.files, 2)
	_, err = os.Stat(a.FilePath)
	assert.NoError(t, err)
}

func TestGenerateStructured(t *testing.T) {
	uc, repo, _ := newUsecase(t)

	file, err := uc.GenerateStructured("u1", "Q3 Review", "q3 review", []pdf.Section{
		{Heading: "Summary", Content: "Revenue up."},
		{Heading: "Next steps", Content: "Hire two engineers."},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1_1700000000123_q3_review.pdf", file.Filename)
	assert.Equal(t, "Q3 Review", file.Title)
	assert.Greater(t, file.FileSize, int64(0))
	assert.Len(t, repo.files, 1)

	tests := []struct {
		name     string
		title    string
		sections []pdf.Section
	}{
		{"no title", " ", []pdf.Section{{Heading: "A", Content: "b"}}},
		{"no sections", "T", nil},
		{"blank section", "T", []pdf.Section{{Heading: "A", Content: "b"}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.GenerateStructured("u1", tt.title, "", tt.sections)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
	assert.Len(t, repo.files, 1)
}
