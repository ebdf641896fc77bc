package pdf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		owner string
		title string
		want  string
	}{
		{"", "Weekly Report", "1700000000123_Weekly_Report.pdf"},
		{"", "Q3/Q4: sales & costs", "1700000000123_Q3_Q4__sales___costs.pdf"},
		{"", "../../etc/passwd", "1700000000123_______etc_passwd.pdf"},
		{"u1", "Weekly Report", "u1_1700000000123_Weekly_Report.pdf"},
		{"3f2a-9c/..", "Notes", "3f2a_9c____1700000000123_Notes.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.owner+"/"+tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.owner, tt.title, now))
		})
	}
}

func TestFilename_OwnersDoNotCollide(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.NotEqual(t, Filename("alice", "Report", now), Filename("bob", "Report", now))
}

func TestRender_WritesPDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "doc.pdf")

	path, err := NewRenderer().Render("First line\n\nSecond line with café", out, Options{Title: "Report", Author: "tester"})
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, len(data) > 100)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestRenderSections_WritesPDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "structured.pdf")

	path, err := NewRenderer().RenderSections([]Section{
		{Heading: "Summary", Content: "Revenue up."},
		{Heading: "", Content: "Untitled block\n\nwith two paragraphs"},
	}, out, Options{Title: "Q3"})
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
}
