package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mailusecase "office-agent/internal/mail/usecase"
	"office-agent/internal/template/domain"
	"office-agent/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTemplates struct {
	rows  map[string]*domain.EmailTemplate
	uses  map[string]int
	useAt time.Time
}

func newMemTemplates() *memTemplates {
	return &memTemplates{rows: map[string]*domain.EmailTemplate{}, uses: map[string]int{}}
}

func (m *memTemplates) Create(t *domain.EmailTemplate) error {
	if t.ID == "" {
		t.ID = fmt.Sprintf("t%d", len(m.rows)+1)
	}
	m.rows[t.ID] = t
	return nil
}

func (m *memTemplates) Update(t *domain.EmailTemplate) error {
	m.rows[t.ID] = t
	return nil
}

func (m *memTemplates) FindByID(userID, id string) (*domain.EmailTemplate, error) {
	t, ok := m.rows[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	return t, nil
}

func (m *memTemplates) List(userID, category string) ([]*domain.EmailTemplate, error) {
	var out []*domain.EmailTemplate
	for _, t := range m.rows {
		if t.UserID == userID && (category == "" || t.Category == category) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTemplates) Delete(userID, id string) (bool, error) {
	t, ok := m.rows[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *memTemplates) IncrementUsage(userID, id string, at time.Time) (bool, error) {
	if _, err := m.FindByID(userID, id); err != nil {
		return false, err
	}
	m.uses[id]++
	m.useAt = at
	return true, nil
}

type memAttachments struct {
	rows map[string]*domain.EmailAttachment
}

func (m *memAttachments) Create(a *domain.EmailAttachment) error {
	a.ID = "a1"
	m.rows[a.ID] = a
	return nil
}

func (m *memAttachments) FindByID(userID, id string) (*domain.EmailAttachment, error) {
	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}

type fakeMail struct {
	err   error
	calls []mailusecase.SendRequest
}

func (f *fakeMail) Send(_ context.Context, _ string, req mailusecase.SendRequest) (*mailusecase.SendResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &mailusecase.SendResult{MessageID: "<t1@test>", Recipients: req.To}, nil
}

type fakeGenerator struct {
	reply  string
	err    error
	cfg    ai.GenerationConfig
	prompt string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string, cfg ai.GenerationConfig) (ai.Completion, error) {
	f.prompt = prompt
	f.cfg = cfg
	return ai.Completion{Text: f.reply}, f.err
}

func (f *fakeGenerator) Chat(context.Context, string, []ai.ChatMessage) (string, error) {
	return "", errors.New("not used")
}

type harness struct {
	uc          TemplateUsecase
	templates   *memTemplates
	attachments *memAttachments
	mail        *fakeMail
	gen         *fakeGenerator
	dir         string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		templates:   newMemTemplates(),
		attachments: &memAttachments{rows: map[string]*domain.EmailAttachment{}},
		mail:        &fakeMail{},
		gen:         &fakeGenerator{},
		dir:         t.TempDir(),
	}
	uc := NewTemplateUsecase(h.templates, h.attachments, h.mail, h.gen, h.dir, time.Second).(*templateUsecase)
	uc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	h.uc = uc
	return h
}

func (h *harness) seed(userID, subject, body string) *domain.EmailTemplate {
	t := &domain.EmailTemplate{ID: "t1", UserID: userID, Name: "Follow up", Subject: subject, Body: body}
	h.templates.rows[t.ID] = t
	return t
}

func TestCreate_ExtractsVariables(t *testing.T) {
	h := newHarness(t)

	tpl, err := h.uc.Create("u1", CreateInput{Name: " Intro ", Subject: "Hi {{name}}", Body: "From {{sender}}"})

	require.NoError(t, err)
	assert.Equal(t, "Intro", tpl.Name)
	assert.Equal(t, []string{"name", "sender"}, tpl.Variables)

	_, err = h.uc.Create("u1", CreateInput{Name: "x", Subject: " ", Body: "b"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestUpdate(t *testing.T) {
	str := func(s string) *string { return &s }
	fav := true

	tests := []struct {
		name    string
		userID  string
		input   UpdateInput
		wantErr error
		check   func(t *testing.T, tpl *domain.EmailTemplate)
	}{
		{
			name:   "body change refreshes variables",
			userID: "u1",
			input:  UpdateInput{Body: str("Thanks {{client}}"), IsFavorite: &fav},
			check: func(t *testing.T, tpl *domain.EmailTemplate) {
				assert.Equal(t, []string{"client", "name"}, tpl.Variables)
				assert.True(t, tpl.IsFavorite)
			},
		},
		{name: "blank name rejected", userID: "u1", input: UpdateInput{Name: str("")}, wantErr: domain.ErrInvalidRequest},
		{name: "other owner", userID: "u2", input: UpdateInput{Name: str("x")}, wantErr: domain.ErrTemplateNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.seed("u1", "Hi {{name}}", "Body")

			tpl, err := h.uc.Update(tt.userID, "t1", tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, tpl)
		})
	}
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.seed("u1", "s", "b")

	assert.ErrorIs(t, h.uc.Delete("u2", "t1"), domain.ErrTemplateNotFound)
	assert.NoError(t, h.uc.Delete("u1", "t1"))
	assert.ErrorIs(t, h.uc.Delete("u1", "t1"), domain.ErrTemplateNotFound)
}

func TestUse_WithoutRecipientsOnlyFills(t *testing.T) {
	h := newHarness(t)
	h.seed("u1", "Hi {{name}}", "See you {{when}}")

	res, err := h.uc.Use(context.Background(), "u1", "t1", UseInput{Variables: map[string]string{"name": "Ana"}})

	require.NoError(t, err)
	assert.Equal(t, "Hi Ana", res.Subject)
	assert.Equal(t, "See you {{when}}", res.Body)
	assert.Equal(t, []string{"when"}, res.Missing)
	assert.False(t, res.Sent)
	assert.Empty(t, h.mail.calls)
	assert.Equal(t, 1, h.templates.uses["t1"])
	assert.Equal(t, int64(1700000000123), h.templates.useAt.UnixMilli())
}

func TestUse_SendsThroughMail(t *testing.T) {
	h := newHarness(t)
	h.seed("u1", "Hi {{name}}", "Report attached")
	path := filepath.Join(h.dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))
	h.attachments.rows["a1"] = &domain.EmailAttachment{ID: "a1", UserID: "u1", Filename: "report.pdf", FilePath: path}

	res, err := h.uc.Use(context.Background(), "u1", "t1", UseInput{
		To:            []string{"ana@example.com"},
		Variables:     map[string]string{"name": "Ana"},
		ConfigID:      "cfg-1",
		AttachmentIDs: []string{"a1"},
	})

	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, "<t1@test>", res.MessageID)
	require.Len(t, h.mail.calls, 1)
	sent := h.mail.calls[0]
	assert.Equal(t, "Hi Ana", sent.Subject)
	assert.Equal(t, "cfg-1", sent.ConfigID)
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "report.pdf", sent.Attachments[0].Name)
	assert.Equal(t, path, sent.Attachments[0].Path)
	assert.Equal(t, 1, h.templates.uses["t1"])
}

func TestUse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		input   UseInput
		mailErr error
		wantErr error
	}{
		{
			name:    "unknown template",
			userID:  "u2",
			input:   UseInput{},
			wantErr: domain.ErrTemplateNotFound,
		},
		{
			name:    "missing values block sending",
			userID:  "u1",
			input:   UseInput{To: []string{"a@example.com"}},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "foreign attachment",
			userID:  "u1",
			input:   UseInput{To: []string{"a@example.com"}, Variables: map[string]string{"name": "A"}, AttachmentIDs: []string{"nope"}},
			wantErr: domain.ErrAttachmentNotFound,
		},
		{
			name:    "mail error",
			userID:  "u1",
			input:   UseInput{To: []string{"a@example.com"}, Variables: map[string]string{"name": "A"}},
			mailErr: errors.New("smtp down"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.seed("u1", "Hi {{name}}", "b")
			h.mail.err = tt.mailErr

			_, err := h.uc.Use(context.Background(), tt.userID, "t1", tt.input)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Zero(t, h.templates.uses["t1"])
		})
	}
}

func TestGenerate(t *testing.T) {
	h := newHarness(t)
	h.gen.reply = "```json\n{\"subject\": \"Welcome {{name}}\", \"body\": \"Glad to have you, {{name}}. {{sender_name}}\"}\n```"

	out, err := h.uc.Generate(context.Background(), "onboarding", "new B2B customers")

	require.NoError(t, err)
	assert.Equal(t, "Welcome {{name}}", out.Subject)
	assert.Equal(t, []string{"name", "sender_name"}, out.Variables)
	assert.Equal(t, "onboarding", out.Category)
	assert.Equal(t, float32(0.6), h.gen.cfg.Temperature)
	assert.Contains(t, h.gen.prompt, "category: onboarding")
	assert.Contains(t, h.gen.prompt, "new B2B customers")
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		category string
		reply    string
		err      error
		noGen    bool
		wantErr  error
	}{
		{name: "category required", category: " ", wantErr: domain.ErrInvalidRequest},
		{name: "no provider", category: "sales", noGen: true, wantErr: ErrNoProvider},
		{name: "provider error", category: "sales", err: errors.New("quota")},
		{name: "not json", category: "sales", reply: "Sure! Here you go.", wantErr: ai.ErrNoJSON},
		{name: "empty fields", category: "sales", reply: `{"subject": "", "body": ""}`, wantErr: ai.ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.gen.reply, h.gen.err = tt.reply, tt.err
			if tt.noGen {
				h.uc.(*templateUsecase).generator = nil
			}

			_, err := h.uc.Generate(context.Background(), tt.category, "")

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSaveAttachment(t *testing.T) {
	h := newHarness(t)

	a, err := h.uc.SaveAttachment("u1", Upload{
		Filename: "../Q3 report.pdf",
		MimeType: "application/pdf",
		Size:     4,
		Content:  strings.NewReader("%PDF"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Q3 report.pdf", a.Filename)
	assert.Equal(t, int64(4), a.FileSize)
	assert.Equal(t, filepath.Join(h.dir, "attachments"), filepath.Dir(a.FilePath))
	assert.True(t, strings.HasPrefix(filepath.Base(a.FilePath), "1700000000123-"))
	assert.True(t, strings.HasSuffix(a.FilePath, "-Q3_report.pdf"))
	data, err := os.ReadFile(a.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	got, err := h.uc.GetAttachment("u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.FilePath, got.FilePath)

	_, err = h.uc.GetAttachment("u2", a.ID)
	assert.ErrorIs(t, err, domain.ErrAttachmentNotFound)
}

func TestSaveAttachment_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"extension", Upload{Filename: "run.exe", Content: strings.NewReader("MZ")}, domain.ErrUnsupportedFile},
		{"mime mismatch", Upload{Filename: "a.png", MimeType: "text/html", Content: strings.NewReader("x")}, domain.ErrUnsupportedFile},
		{"declared size", Upload{Filename: "a.txt", Size: MaxAttachmentSize + 1, Content: strings.NewReader("x")}, domain.ErrFileTooLarge},
		{"stream size", Upload{Filename: "a.zip", Size: 1, Content: strings.NewReader(strings.Repeat("x", MaxAttachmentSize+1))}, domain.ErrFileTooLarge},
		{"no name", Upload{Filename: " ", Content: strings.NewReader("x")}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.uc.SaveAttachment("u1", tt.upload)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, h.attachments.rows)
			entries, _ := os.ReadDir(filepath.Join(h.dir, "attachments"))
			assert.Empty(t, entries)
		})
	}
}

func TestCheckType_AcceptsGenericMime(t *testing.T) {
	assert.NoError(t, checkType("notes.TXT", "text/plain; charset=utf-8"))
	assert.NoError(t, checkType("scan.jpg", "application/octet-stream"))
	assert.NoError(t, checkType("book.xlsx", ""))
}
