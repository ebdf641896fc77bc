package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	mailusecase "office-agent/internal/mail/usecase"
	"office-agent/internal/template/domain"
	"office-agent/internal/template/repository"
	"office-agent/pkg/ai"
	"office-agent/pkg/smtp"

	"github.com/rs/zerolog/log"
)

// ErrNoProvider is returned by Generate when no AI backend is configured
var ErrNoProvider = errors.New("no AI provider configured")

var generateConfig = ai.GenerationConfig{Temperature: 0.6, MaxOutputTokens: 1000}

// MailSender is implemented by mail.MailUsecase
type MailSender interface {
	Send(ctx context.Context, userID string, req mailusecase.SendRequest) (*mailusecase.SendResult, error)
}

type templateUsecase struct {
	templates   repository.TemplateRepository
	attachments repository.AttachmentRepository
	mail        MailSender
	generator   ai.TextGenerator
	dir         string
	aiTimeout   time.Duration
	now         func() time.Time
}

// NewTemplateUsecase creates a new instance of templateUsecase. generator may be nil.
func NewTemplateUsecase(
	templates repository.TemplateRepository,
	attachments repository.AttachmentRepository,
	mail MailSender,
	generator ai.TextGenerator,
	uploadsDir string,
	aiTimeout time.Duration,
) TemplateUsecase {
	return &templateUsecase{
		templates:   templates,
		attachments: attachments,
		mail:        mail,
		generator:   generator,
		dir:         attachmentDir(uploadsDir),
		aiTimeout:   aiTimeout,
		now:         time.Now,
	}
}

func (u *templateUsecase) List(userID, category string) ([]*domain.EmailTemplate, error) {
	return u.templates.List(userID, strings.TrimSpace(category))
}

func (u *templateUsecase) Create(userID string, input CreateInput) (*domain.EmailTemplate, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, fmt.Errorf("%w: name, subject and body are required", domain.ErrInvalidRequest)
	}
	vars := input.Variables
	if len(vars) == 0 {
		vars = domain.ExtractVariables(input.Subject, input.Body)
	}

	t := &domain.EmailTemplate{
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Subject:     input.Subject,
		Body:        input.Body,
		Category:    strings.TrimSpace(input.Category),
		Variables:   vars,
	}
	if err := u.templates.Create(t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return t, nil
}

func (u *templateUsecase) load(userID, id string) (*domain.EmailTemplate, error) {
	t, err := u.templates.FindByID(userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if t == nil {
		return nil, domain.ErrTemplateNotFound
	}
	return t, nil
}

func (u *templateUsecase) Update(userID, id string, input UpdateInput) (*domain.EmailTemplate, error) {
	t, err := u.load(userID, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string, field string, required bool) error {
		if v == nil {
			return nil
		}
		if required && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s cannot be empty", domain.ErrInvalidRequest, field)
		}
		*dst = *v
		return nil
	}
	for _, f := range []struct {
		dst      *string
		v        *string
		field    string
		required bool
	}{
		{&t.Name, input.Name, "name", true},
		{&t.Subject, input.Subject, "subject", true},
		{&t.Body, input.Body, "body", true},
		{&t.Description, input.Description, "description", false},
		{&t.Category, input.Category, "category", false},
	} {
		if err := set(f.dst, f.v, f.field, f.required); err != nil {
			return nil, err
		}
	}
	if input.IsFavorite != nil {
		t.IsFavorite = *input.IsFavorite
	}
	if input.Subject != nil || input.Body != nil {
		t.Variables = domain.ExtractVariables(t.Subject, t.Body)
	}

	if err := u.templates.Update(t); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return t, nil
}

func (u *templateUsecase) Delete(userID, id string) error {
	deleted, err := u.templates.Delete(userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if !deleted {
		return domain.ErrTemplateNotFound
	}
	return nil
}

func (u *templateUsecase) Use(ctx context.Context, userID, id string, input UseInput) (*UseResult, error) {
	t, err := u.load(userID, id)
	if err != nil {
		return nil, err
	}

	subject, missingSubject := domain.Fill(t.Subject, input.Variables)
	body, missingBody := domain.Fill(t.Body, input.Variables)
	result := &UseResult{Subject: subject, Body: body, Missing: distinct(missingSubject, missingBody)}

	if len(input.To) > 0 {
		if len(result.Missing) > 0 {
			return nil, fmt.Errorf("%w: missing values for %s", domain.ErrInvalidRequest, strings.Join(result.Missing, ", "))
		}
		files, err := u.resolveAttachments(userID, input.AttachmentIDs)
		if err != nil {
			return nil, err
		}
		res, err := u.mail.Send(ctx, userID, mailusecase.SendRequest{
			To:          input.To,
			Cc:          input.Cc,
			Subject:     subject,
			Body:        body,
			ConfigID:    input.ConfigID,
			Attachments: files,
		})
		if err != nil {
			return nil, err
		}
		result.Sent = true
		result.MessageID = res.MessageID
	}

	found, err := u.templates.IncrementUsage(userID, id, u.now())
	if err != nil {
		// the message may already be out, so only log
		log.Warn().Err(err).Str("template_id", id).Msg("[Template] Failed to record usage")
	} else if !found {
		log.Warn().Str("template_id", id).Msg("[Template] Template disappeared before usage was recorded")
	}
	return result, nil
}

func (u *templateUsecase) resolveAttachments(userID string, ids []string) ([]smtp.Attachment, error) {
	files := make([]smtp.Attachment, 0, len(ids))
	for _, id := range ids {
		a, err := u.GetAttachment(userID, id)
		if err != nil {
			return nil, err
		}
		files = append(files, smtp.Attachment{Name: a.Filename, Path: a.FilePath})
	}
	return files, nil
}

func distinct(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (u *templateUsecase) Generate(ctx context.Context, category, extraContext string) (*Generated, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidRequest)
	}
	if u.generator == nil {
		return nil, ErrNoProvider
	}

	if u.aiTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.aiTimeout)
		defer cancel()
	}

	res, err := u.generator.Complete(ctx, generatePrompt(category, extraContext), generateConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to generate template: %w", err)
	}

	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := ai.DecodeJSON(res.Text, &out); err != nil {
		log.Warn().Err(err).Str("category", category).Msg("[Template] Model reply was not a template")
		return nil, fmt.Errorf("failed to generate template: %w", err)
	}
	if strings.TrimSpace(out.Subject) == "" || strings.TrimSpace(out.Body) == "" {
		return nil, fmt.Errorf("failed to generate template: %w", ai.ErrEmptyResponse)
	}

	log.Info().Str("category", category).Msg("[Template] Template generated")
	return &Generated{
		Subject:   out.Subject,
		Body:      out.Body,
		Category:  category,
		Variables: domain.ExtractVariables(out.Subject, out.Body),
	}, nil
}

func generatePrompt(category, extraContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert business email writer. Write a reusable, professional email template for the category: %s.\n", category)
	if extraContext = strings.TrimSpace(extraContext); extraContext != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", extraContext)
	}
	b.WriteString("Use {{variable_name}} placeholders for details that change per recipient, such as {{recipient_name}} and {{sender_name}}.\n\n")
	b.WriteString(`Respond with JSON only: {"subject": "...", "body": "..."}`)
	return b.String()
}
