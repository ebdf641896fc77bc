// Package pdf renders plain text documents to A4 PDF files.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Options are the document metadata
type Options struct {
	Title  string
	Author string
}

// Section is one headed block of a structured document
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Renderer writes a paginated document to disk and returns its path
type Renderer interface {
	Render(content, outputPath string, opts Options) (string, error)
	RenderSections(sections []Section, outputPath string, opts Options) (string, error)
}

type fpdfRenderer struct{}

func NewRenderer() Renderer {
	return &fpdfRenderer{}
}

const (
	margin      = 50.0
	titleSize   = 18.0
	headingSize = 14.0
	bodySize    = 12.0
	lineHeight  = 16.0
)

func (r *fpdfRenderer) Render(content, outputPath string, opts Options) (string, error) {
	doc, tr, err := newDocument(outputPath, opts)
	if err != nil {
		return "", err
	}
	writeParagraphs(doc, tr, content)
	return save(doc, outputPath)
}

func (r *fpdfRenderer) RenderSections(sections []Section, outputPath string, opts Options) (string, error) {
	doc, tr, err := newDocument(outputPath, opts)
	if err != nil {
		return "", err
	}
	for i, section := range sections {
		if i > 0 {
			doc.Ln(lineHeight / 2)
		}
		if heading := strings.TrimSpace(section.Heading); heading != "" {
			doc.SetFont("Helvetica", "B", headingSize)
			doc.MultiCell(0, headingSize+4, tr(heading), "", "L", false)
			doc.Ln(4)
		}
		writeParagraphs(doc, tr, section.Content)
	}
	return save(doc, outputPath)
}

// newDocument opens an A4 page with the centred title already written
func newDocument(outputPath string, opts Options) (*fpdf.Fpdf, func(string) string, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	doc := fpdf.New("P", "pt", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin)
	if opts.Title != "" {
		doc.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		doc.SetAuthor(opts.Author, true)
	}
	doc.SetCreator("office-agent", true)
	doc.AddPage()

	if opts.Title != "" {
		doc.SetFont("Helvetica", "B", titleSize)
		doc.MultiCell(0, titleSize+6, tr(opts.Title), "", "C", false)
		doc.Ln(lineHeight)
	}
	return doc, tr, nil
}

func writeParagraphs(doc *fpdf.Fpdf, tr func(string) string, content string) {
	doc.SetFont("Helvetica", "", bodySize)
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			doc.Ln(lineHeight)
			continue
		}
		doc.MultiCell(0, lineHeight, tr(line), "", "L", false)
	}
}

func save(doc *fpdf.Fpdf, outputPath string) (string, error) {
	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	return outputPath, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename builds "<owner>_<unix millis>_<sanitized title>.pdf". The owner
// prefix keeps two users' documents apart when the millisecond and title match.
func Filename(owner, title string, now time.Time) string {
	name := fmt.Sprintf("%d_%s.pdf", now.UnixMilli(), unsafeChars.ReplaceAllString(title, "_"))
	if owner == "" {
		return name
	}
	return unsafeChars.ReplaceAllString(owner, "_") + "_" + name
}
