package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"office-agent/internal/cron/domain"
	"office-agent/internal/cron/repository"
	"office-agent/internal/cron/scheduler"
	docdomain "office-agent/internal/document/domain"
	mailusecase "office-agent/internal/mail/usecase"
	scrapedomain "office-agent/internal/scrape/domain"
	"office-agent/pkg/fcm"
	"office-agent/pkg/smtp"

	"github.com/rs/zerolog/log"
)

// MailSender is the part of the mail usecase a job needs
type MailSender interface {
	SendWithDefaultConfig(ctx context.Context, userID string, req mailusecase.SendRequest) (*mailusecase.SendResult, error)
}

// PDFGenerator is the part of the document usecase a job needs
type PDFGenerator interface {
	Generate(userID, title, content string) (*docdomain.PDFFile, error)
}

// WebScraper is the part of the scrape usecase a job needs
type WebScraper interface {
	Scrape(ctx context.Context, userID, url string, selectors map[string]string) (*scrapedomain.ScrapeJob, error)
}

// Notifier pushes a failure notice to the job owner
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, n fcm.Notification)
}

// TaskRunner builds the callbacks that run on every tick and keeps the
// job row's bookkeeping in sync
type TaskRunner struct {
	repo    repository.CronJobRepository
	mail    MailSender
	pdf     PDFGenerator
	scraper WebScraper
	notify  Notifier
	now     func() time.Time
}

// NewTaskRunner creates a TaskRunner. Any collaborator may be nil, in which
// case jobs of that type fail with a descriptive error.
func NewTaskRunner(repo repository.CronJobRepository, mail MailSender, pdf PDFGenerator, scraper WebScraper) *TaskRunner {
	return &TaskRunner{
		repo:    repo,
		mail:    mail,
		pdf:     pdf,
		scraper: scraper,
		now:     time.Now,
	}
}

// WithNotifier enables failure push notifications
func (r *TaskRunner) WithNotifier(n Notifier) *TaskRunner {
	r.notify = n
	return r
}

// Build returns the registry task for job. The job is copied so later edits to
// the caller's struct do not leak into the timer.
func (r *TaskRunner) Build(job *domain.CronJob) scheduler.Task {
	snapshot := *job
	return func(ctx context.Context) error {
		return r.run(ctx, &snapshot)
	}
}

func (r *TaskRunner) run(ctx context.Context, job *domain.CronJob) error {
	if err := r.repo.SetStatusSystem(job.ID, domain.StatusRunning); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("[Cron] Failed to mark job running")
	}

	log.Info().Str("job_id", job.ID).Str("user_id", job.UserID).Str("task_type", string(job.TaskType)).Msg("[Cron] Executing job")
	runErr := r.execute(ctx, job)

	status, lastError := domain.StatusActive, ""
	if runErr != nil {
		status, lastError = domain.StatusFailed, runErr.Error()
	}
	if err := r.repo.RecordRunSystem(job.ID, status, lastError, r.now()); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("[Cron] Failed to record run")
	}
	if runErr != nil && r.notify != nil {
		r.notify.NotifyUser(ctx, job.UserID, fcm.Notification{
			Title: "Scheduled task failed: " + job.Name,
			Body:  lastError,
			Data:  map[string]string{"type": "cron_failed", "job_id": job.ID},
			Link:  "/cron",
		})
	}
	return runErr
}

func (r *TaskRunner) execute(ctx context.Context, job *domain.CronJob) error {
	cfg := job.TaskConfig

	switch job.TaskType {
	case domain.TaskEmail:
		if r.mail == nil {
			return fmt.Errorf("email tasks are not available")
		}
		to := stringsParam(cfg, "to")
		if len(to) == 0 {
			return fmt.Errorf("task_config.to is required")
		}
		_, err := r.mail.SendWithDefaultConfig(ctx, job.UserID, mailusecase.SendRequest{
			To:      to,
			Subject: stringParam(cfg, "subject", job.Name),
			Body:    stringParam(cfg, "body", ""),
		})
		return err

	case domain.TaskPDF:
		if r.pdf == nil {
			return fmt.Errorf("pdf tasks are not available")
		}
		title := stringParam(cfg, "title", job.Name)
		_, err := r.pdf.Generate(job.UserID, title, stringParam(cfg, "content", title))
		return err

	case domain.TaskScraper:
		if r.scraper == nil {
			return fmt.Errorf("scraper tasks are not available")
		}
		url := stringParam(cfg, "url", "")
		if url == "" {
			return fmt.Errorf("task_config.url is required")
		}
		_, err := r.scraper.Scrape(ctx, job.UserID, url, selectorsParam(cfg, "selectors"))
		return err

	default:
		return fmt.Errorf("%w: unknown task_type %q", domain.ErrInvalidRequest, job.TaskType)
	}
}

func stringParam(cfg map[string]interface{}, key, fallback string) string {
	if s, ok := cfg[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// stringsParam accepts "a, b" or ["a", "b"]
func stringsParam(cfg map[string]interface{}, key string) []string {
	switch v := cfg[key].(type) {
	case string:
		return smtp.SplitAddresses(v)
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func selectorsParam(cfg map[string]interface{}, key string) map[string]string {
	raw, ok := cfg[key].(map[string]interface{})
	if !ok {
		if typed, ok := cfg[key].(map[string]string); ok {
			return typed
		}
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
