package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"office-agent/internal/inbox/domain"
	"office-agent/pkg/ai"
	"office-agent/pkg/imap"

	"github.com/rs/zerolog/log"
)

const (
	classifyBodyLimit = 1000
	draftBodyLimit    = 1500

	defaultConfidence = 0.8
	defaultTone       = "professional"
)

var (
	classifyConfig = ai.GenerationConfig{Temperature: 0.3, MaxOutputTokens: 512}
	draftConfig    = ai.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 1024}
)

const classifyTemplate = `Analyze this email and provide a JSON response:

From: %s
Subject: %s
Body: %s

Provide analysis in this exact JSON format:
{
  "priority": "urgent|high|normal|low",
  "category": "question|request|complaint|info|spam|other",
  "sentiment": "positive|neutral|negative",
  "summary": "Brief 1-2 sentence summary",
  "suggestedAction": "reply|forward|archive|delete"
}

Respond ONLY with valid JSON, no additional text.`

const draftTemplate = `Generate a professional email response:

Original Email:
From: %s
Subject: %s
Body: %s

Generate a response in this JSON format:
{
  "subject": "Re: %s",
  "body": "Professional response body",
  "tone": "professional|friendly|formal",
  "reasoning": "Why this response is appropriate",
  "confidence": 0.85
}

Make the response:
- Professional and courteous
- Address the sender's concerns
- Keep it concise (2-3 paragraphs max)
- Sign off appropriately

Respond ONLY with valid JSON.`

// Classifier asks the model to triage messages and draft replies
type Classifier struct {
	generator ai.TextGenerator
	timeout   time.Duration
}

func NewClassifier(generator ai.TextGenerator, timeout time.Duration) *Classifier {
	return &Classifier{generator: generator, timeout: timeout}
}

type classificationReply struct {
	Priority        string `json:"priority"`
	Category        string `json:"category"`
	Sentiment       string `json:"sentiment"`
	Summary         string `json:"summary"`
	SuggestedAction string `json:"suggestedAction"`
}

type draftReply struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Tone       string   `json:"tone"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence"`
}

func sender(msg *imap.Message) string {
	if msg.FromName != "" {
		return fmt.Sprintf("%s (%s)", msg.FromAddress, msg.FromName)
	}
	return msg.FromAddress
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Fallback is used when the model reply cannot be used
func Fallback(subject string) domain.Classification {
	return domain.Classification{
		Priority:        domain.PriorityNormal,
		Category:        domain.CategoryOther,
		Sentiment:       domain.SentimentNeutral,
		Summary:         subject,
		SuggestedAction: domain.ActionReply,
	}
}

func (c *Classifier) complete(ctx context.Context, prompt string, cfg ai.GenerationConfig) (string, error) {
	if c.generator == nil {
		return "", errors.New("no AI provider configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	completion, err := c.generator.Complete(ctx, prompt, cfg)
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

// Classify never fails. Fields the model left out or filled with values
// outside their enum take the fallback value.
func (c *Classifier) Classify(ctx context.Context, msg *imap.Message) domain.Classification {
	fallback := Fallback(msg.Subject)

	prompt := fmt.Sprintf(classifyTemplate, sender(msg), msg.Subject, truncate(msg.Text, classifyBodyLimit))
	text, err := c.complete(ctx, prompt, classifyConfig)
	if err != nil {
		log.Warn().Err(err).Str("message_id", msg.MessageID).Msg("[Inbox] Classification failed, using fallback")
		return fallback
	}

	var reply classificationReply
	if err := ai.DecodeJSON(text, &reply); err != nil {
		log.Warn().Err(err).Str("message_id", msg.MessageID).Msg("[Inbox] Unparseable classification, using fallback")
		return fallback
	}

	out := fallback
	if p := domain.Priority(strings.ToLower(strings.TrimSpace(reply.Priority))); p.Valid() {
		out.Priority = p
	}
	if cat := domain.Category(strings.ToLower(strings.TrimSpace(reply.Category))); cat.Valid() {
		out.Category = cat
	}
	if s := domain.Sentiment(strings.ToLower(strings.TrimSpace(reply.Sentiment))); s.Valid() {
		out.Sentiment = s
	}
	if a := domain.SuggestedAction(strings.ToLower(strings.TrimSpace(reply.SuggestedAction))); a.Valid() {
		out.SuggestedAction = a
	}
	if summary := strings.TrimSpace(reply.Summary); summary != "" {
		out.Summary = summary
	}
	return out
}

// Draft asks for a reply to msg. The result is not persisted.
func (c *Classifier) Draft(ctx context.Context, msg *imap.Message) (*domain.AIDraft, error) {
	prompt := fmt.Sprintf(draftTemplate, sender(msg), msg.Subject, truncate(msg.Text, draftBodyLimit), msg.Subject)
	text, err := c.complete(ctx, prompt, draftConfig)
	if err != nil {
		return nil, err
	}

	var reply draftReply
	if err := ai.DecodeJSON(text, &reply); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.Body) == "" {
		return nil, errors.New("draft reply has no body")
	}

	draft := &domain.AIDraft{
		ToAddress:    msg.FromAddress,
		Subject:      strings.TrimSpace(reply.Subject),
		Body:         reply.Body,
		AIConfidence: defaultConfidence,
		AIReasoning:  reply.Reasoning,
		Tone:         strings.TrimSpace(reply.Tone),
		Status:       domain.DraftPending,
	}
	if draft.Subject == "" {
		draft.Subject = "Re: " + msg.Subject
	}
	if draft.Tone == "" {
		draft.Tone = defaultTone
	}
	if reply.Confidence != nil && *reply.Confidence > 0 && *reply.Confidence <= 1 {
		draft.AIConfidence = *reply.Confidence
	}
	return draft, nil
}
