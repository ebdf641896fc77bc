package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"office-agent/internal/agent/domain"
	cronDomain "office-agent/internal/cron/domain"
	cronUsecase "office-agent/internal/cron/usecase"
	docDomain "office-agent/internal/document/domain"
	mailDomain "office-agent/internal/mail/domain"
	mailUsecase "office-agent/internal/mail/usecase"
	scrapeDomain "office-agent/internal/scrape/domain"
	"office-agent/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// MailSender sends through the caller's default SMTP config
type MailSender interface {
	SendWithDefaultConfig(ctx context.Context, userID string, req mailUsecase.SendRequest) (*mailUsecase.SendResult, error)
}

// PDFGenerator renders and stores a PDF document
type PDFGenerator interface {
	Generate(userID, title, content string) (*docDomain.PDFFile, error)
}

// WebScraper scrapes a page and records the job
type WebScraper interface {
	Scrape(ctx context.Context, userID, url string, selectors map[string]string) (*scrapeDomain.ScrapeJob, error)
}

// JobCreator persists and registers a scheduled job
type JobCreator interface {
	CreateJob(ctx context.Context, userID string, input cronUsecase.CreateJobInput) (*cronDomain.CronJob, error)
}

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeRefused = "refused"

	previewLimit = 500
)

// Executor runs one AgentAction and reports the outcome as a user-facing string
type Executor struct {
	mail    MailSender
	pdf     PDFGenerator
	scraper WebScraper
	jobs    JobCreator
}

// NewExecutor creates an Executor
func NewExecutor(mail MailSender, pdf PDFGenerator, scraper WebScraper, jobs JobCreator) *Executor {
	return &Executor{mail: mail, pdf: pdf, scraper: scraper, jobs: jobs}
}

// Execute never returns an error; failures are folded into the outcome string
func (e *Executor) Execute(ctx context.Context, action domain.AgentAction, userID string) (result string) {
	call := action.Call
	if call == nil {
		decoded, err := domain.DecodeCall(action.Tool, action.Parameters)
		if err != nil {
			call = domain.UnknownCall{Name: action.Tool}
		} else {
			call = decoded
		}
	}

	outcome := outcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("tool", call.ToolName()).Msg("[Agent] Tool execution panicked")
			result = failure(verbFor(call), fmt.Errorf("%v", r))
			outcome = outcomeFailure
		}
		metrics.AgentActions.WithLabelValues(call.ToolName(), outcome).Inc()
	}()

	var err error
	switch c := call.(type) {
	case domain.ConversationCall:
		return helpText
	case domain.UnknownCall:
		outcome = outcomeRefused
		return fmt.Sprintf("Unknown tool: %s", c.Name)
	case domain.SendEmailCall:
		result, err = e.sendEmail(ctx, userID, c)
	case domain.GeneratePDFCall:
		result, err = e.generatePDF(userID, c)
	case domain.ScrapeWebsiteCall:
		result, err = e.scrapeWebsite(ctx, userID, c)
	case domain.CreateCronJobCall:
		result, err = e.createCronJob(ctx, userID, c)
	default:
		outcome = outcomeRefused
		return fmt.Sprintf("Unknown tool: %s", call.ToolName())
	}

	var refusal refusalError
	switch {
	case errors.As(err, &refusal):
		outcome = outcomeRefused
		return refusal.message
	case err != nil:
		outcome = outcomeFailure
		log.Warn().Err(err).Str("user_id", userID).Str("tool", call.ToolName()).Msg("[Agent] Tool execution failed")
		return failure(verbFor(call), err)
	}
	return result
}

// refusalError is a precondition failure answered verbatim with no side effect
type refusalError struct {
	message string
}

func (r refusalError) Error() string { return r.message }

func loginRequired(what string) error {
	return refusalError{message: fmt.Sprintf("You need to be logged in to %s. Please log in first.", what)}
}

func missingParameter(name string) error {
	return refusalError{message: fmt.Sprintf("❌ Missing required parameter: %s", name)}
}

func failure(verb string, err error) string {
	return fmt.Sprintf("❌ Failed to %s: %v", verb, err)
}

func verbFor(call domain.ToolCall) string {
	switch call.(type) {
	case domain.SendEmailCall:
		return "send email"
	case domain.GeneratePDFCall:
		return "generate PDF"
	case domain.ScrapeWebsiteCall:
		return "scrape website"
	case domain.CreateCronJobCall:
		return "create scheduled task"
	default:
		return "execute action"
	}
}

func (e *Executor) sendEmail(ctx context.Context, userID string, c domain.SendEmailCall) (string, error) {
	if userID == "" {
		return "", loginRequired("send emails")
	}
	switch {
	case len(c.To) == 0:
		return "", missingParameter("to")
	case strings.TrimSpace(c.Subject) == "":
		return "", missingParameter("subject")
	case strings.TrimSpace(c.Body) == "":
		return "", missingParameter("body")
	}

	res, err := e.mail.SendWithDefaultConfig(ctx, userID, mailUsecase.SendRequest{
		To:      c.To,
		Subject: c.Subject,
		Body:    c.Body,
	})
	if errors.Is(err, mailDomain.ErrNoEmailConfig) {
		return "", refusalError{message: "No email configuration found. Please configure your SMTP settings in Settings > Email first."}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Email sent successfully to %s! Message ID: %s", strings.Join(c.To, ", "), res.MessageID), nil
}

func (e *Executor) generatePDF(userID string, c domain.GeneratePDFCall) (string, error) {
	if userID == "" {
		return "", loginRequired("generate PDFs")
	}
	switch {
	case strings.TrimSpace(c.Title) == "":
		return "", missingParameter("title")
	case strings.TrimSpace(c.Content) == "":
		return "", missingParameter("content")
	}

	file, err := e.pdf.Generate(userID, c.Title, c.Content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ PDF generated successfully: %s (%s)", file.Title, file.Filename), nil
}

func (e *Executor) scrapeWebsite(ctx context.Context, userID string, c domain.ScrapeWebsiteCall) (string, error) {
	if userID == "" {
		return "", loginRequired("scrape websites")
	}
	if strings.TrimSpace(c.URL) == "" {
		return "", missingParameter("url")
	}

	job, err := e.scraper.Scrape(ctx, userID, c.URL, c.Selectors)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Website scraped successfully!\n\nURL: %s\n\nData preview:\n%s", c.URL, preview(job.ResultData)), nil
}

// preview is the indented JSON cut at previewLimit, with an ellipsis when the
// compact form is longer than the limit
func preview(data map[string]interface{}) string {
	indented, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return ""
	}
	out := string(indented)
	if len(out) > previewLimit {
		out = truncateRunes(out, previewLimit)
	}
	if compact, err := json.Marshal(data); err == nil && len(compact) > previewLimit {
		out += "..."
	}
	return out
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence
func truncateRunes(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func (e *Executor) createCronJob(ctx context.Context, userID string, c domain.CreateCronJobCall) (string, error) {
	if userID == "" {
		return "", loginRequired("create scheduled tasks")
	}
	switch {
	case strings.TrimSpace(c.Name) == "":
		return "", missingParameter("name")
	case strings.TrimSpace(c.Schedule) == "":
		return "", missingParameter("schedule")
	case strings.TrimSpace(c.TaskType) == "":
		return "", missingParameter("task_type")
	}

	job, err := e.jobs.CreateJob(ctx, userID, cronUsecase.CreateJobInput{
		Name:       c.Name,
		Schedule:   c.Schedule,
		TaskType:   c.TaskType,
		TaskConfig: c.TaskConfig,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Scheduled task created: %s\nSchedule: %s\nTask will run automatically according to the schedule.", job.Name, job.Schedule), nil
}
