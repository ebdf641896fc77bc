package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	agentDelivery "office-agent/internal/agent/delivery"
	agentUsecase "office-agent/internal/agent/usecase"
	authDelivery "office-agent/internal/auth/delivery"
	authRepo "office-agent/internal/auth/repository"
	authUsecase "office-agent/internal/auth/usecase"
	cronDelivery "office-agent/internal/cron/delivery"
	cronRepo "office-agent/internal/cron/repository"
	cronScheduler "office-agent/internal/cron/scheduler"
	cronUsecase "office-agent/internal/cron/usecase"
	docDelivery "office-agent/internal/document/delivery"
	docRepo "office-agent/internal/document/repository"
	docUsecase "office-agent/internal/document/usecase"
	inboxDelivery "office-agent/internal/inbox/delivery"
	inboxRepo "office-agent/internal/inbox/repository"
	inboxScheduler "office-agent/internal/inbox/scheduler"
	inboxUsecase "office-agent/internal/inbox/usecase"
	mailDelivery "office-agent/internal/mail/delivery"
	mailRepo "office-agent/internal/mail/repository"
	mailUsecase "office-agent/internal/mail/usecase"
	"office-agent/internal/notification"
	scrapeDelivery "office-agent/internal/scrape/delivery"
	scrapeRepo "office-agent/internal/scrape/repository"
	scrapeUsecase "office-agent/internal/scrape/usecase"
	templateDelivery "office-agent/internal/template/delivery"
	templateRepo "office-agent/internal/template/repository"
	templateUsecase "office-agent/internal/template/usecase"
	"office-agent/pkg/ai"
	"office-agent/pkg/config"
	"office-agent/pkg/fcm"
	"office-agent/pkg/imap"
	"office-agent/pkg/pdf"
	"office-agent/pkg/scraper"
	"office-agent/pkg/smtp"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// cron ticks get longer than a single AI or SMTP call
const jobTimeout = 5 * time.Minute

// Handler owns every service of the process and the HTTP routes on top of them
type Handler struct {
	cronUsecase  cronUsecase.CronUsecase
	inboxUsecase inboxUsecase.InboxUsecase
	registry     *cronScheduler.Registry
	autoScan     *inboxScheduler.AutoScanScheduler

	server *http.Server
}

// NewHandler builds the dependency graph. Optional backends (AI, FCM) that
// fail to initialise are logged and left disabled.
func NewHandler(ctx context.Context, cfg *config.Config, db *gorm.DB) *Handler {
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	generator := newTextGenerator(ctx, cfg)
	pusher := newPusher(ctx, cfg)

	// Repositories
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	emailConfigRepo := mailRepo.NewEmailConfigRepository(db)
	sentEmailRepo := mailRepo.NewSentEmailRepository(db)
	pdfRepo := docRepo.NewPDFRepository(db)
	scrapeJobRepo := scrapeRepo.NewScrapeJobRepository(db)
	cronJobRepo := cronRepo.NewGormCronJobRepository(db)
	imapConfigRepo := inboxRepo.NewImapConfigRepository(db)
	emailTemplateRepo := templateRepo.NewTemplateRepository(db)
	attachmentRepo := templateRepo.NewAttachmentRepository(db)

	// Use cases
	notifier := notification.NewService(fcmTokenRepo, pusher)
	authUc := authUsecase.NewAuthUsecase(fcmTokenRepo, cfg.JWTSecret)
	mailUc := mailUsecase.NewMailUsecase(emailConfigRepo, sentEmailRepo, smtp.NewSender(cfg.SMTPTimeout), cfg.EncryptionKey)
	docUc := docUsecase.NewDocumentUsecase(pdfRepo, pdf.NewRenderer(), cfg.UploadsDir)
	scrapeUc := scrapeUsecase.NewScrapeUsecase(scrapeJobRepo, scraper.New(newPageFetcher(cfg)), cfg.ScraperTimeout)
	templateUc := templateUsecase.NewTemplateUsecase(emailTemplateRepo, attachmentRepo, mailUc, generator, cfg.UploadsDir, cfg.AITimeout)

	registry := cronScheduler.NewRegistry(jobTimeout)
	runner := cronUsecase.NewTaskRunner(cronJobRepo, mailUc, docUc, scrapeUc).WithNotifier(notifier)
	cronUc := cronUsecase.NewCronUsecase(cronJobRepo, registry, runner)

	executor := agentUsecase.NewExecutor(mailUc, docUc, scrapeUc, cronUc)
	agentUc := agentUsecase.NewAgentUsecase(generator, agentUsecase.NewResolver(generator, cfg.AITimeout), executor, cfg.AITimeout)

	inboxUc := inboxUsecase.NewInboxUsecase(
		inboxUsecase.Repositories{
			Configs:  imapConfigRepo,
			Emails:   inboxRepo.NewInboxEmailRepository(db),
			Drafts:   inboxRepo.NewDraftRepository(db),
			ScanLogs: inboxRepo.NewScanLogRepository(db),
		},
		imap.NewService(cfg.IMAPTimeout),
		inboxUsecase.NewClassifier(generator, cfg.AITimeout),
		mailUc,
		notifier,
		cfg.EncryptionKey,
		cfg.InboxScanLimit,
	)
	autoScan := inboxScheduler.NewAutoScanScheduler(imapConfigRepo, inboxUc, cfg.AutoScanInterval, cfg.IMAPTimeout+2*cfg.AITimeout)

	h := &Handler{
		cronUsecase:  cronUc,
		inboxUsecase: inboxUc,
		registry:     registry,
		autoScan:     autoScan,
	}
	h.server = &http.Server{
		Addr: ":" + cfg.Port,
		Handler: SetupRoutes(cfg, authUc, Routes{
			Agent:    agentDelivery.NewAgentHandler(agentUc),
			AI:       agentDelivery.NewAIHandler(agentUc),
			FCM:      authDelivery.NewFCMHandler(authUc),
			Mail:     mailDelivery.NewMailHandler(mailUc),
			Template: templateDelivery.NewTemplateHandler(templateUc),
			PDF:      docDelivery.NewPDFHandler(docUc),
			Scraper:  scrapeDelivery.NewScraperHandler(scrapeUc),
			Cron:     cronDelivery.NewCronHandler(cronUc),
			Inbox:    inboxDelivery.NewInboxHandler(inboxUc),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return h
}

// newTextGenerator returns nil (not a typed nil) when no provider can be built
func newTextGenerator(ctx context.Context, cfg *config.Config) ai.TextGenerator {
	generator, err := ai.NewTextGenerator(ctx, ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiApiKey,
		GeminiModel:      cfg.GeminiModel,
		OpenAIKey:        cfg.OpenAIKey,
		OpenAIModel:      cfg.OpenAIModel,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		GetOllamaBaseURL: GetRuntimeOllamaBaseURL,
		GetOllamaModel:   GetRuntimeOllamaModel,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize AI provider, agent and triage are disabled")
		return nil
	}
	log.Info().Str("provider", cfg.AIProvider).Msg("AI provider initialized (dynamic Ollama config enabled)")
	return generator
}

func newPusher(ctx context.Context, cfg *config.Config) fcm.Pusher {
	if cfg.FirebaseCredentials == "" {
		log.Info().Msg("No Firebase credentials configured, push notifications disabled")
		return nil
	}
	client, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize FCM client, push notifications disabled")
		return nil
	}
	return client
}

func newPageFetcher(cfg *config.Config) scraper.Fetcher {
	if cfg.ScraperUseBrowser {
		return scraper.NewBrowserFetcher(cfg.ScraperUserAgent, cfg.ScraperTimeout)
	}
	return scraper.NewHTTPFetcher(cfg.ScraperUserAgent, cfg.ScraperTimeout)
}

// Inbox exposes the triage pipeline to the CLI
func (h *Handler) Inbox() inboxUsecase.InboxUsecase {
	return h.inboxUsecase
}

// Start restores persisted cron jobs, starts the auto-scan loop and serves
// HTTP until Shutdown is called
func (h *Handler) Start(ctx context.Context) error {
	restored, err := h.cronUsecase.RestoreJobs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to restore cron jobs")
	} else {
		log.Info().Int("jobs", restored).Msg("Cron jobs restored")
	}
	h.autoScan.Start()

	log.Info().Str("addr", h.server.Addr).Msg("Server starting")
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops background work first, then drains HTTP connections
func (h *Handler) Shutdown(ctx context.Context) error {
	h.autoScan.Stop()
	h.registry.StopAllJobs(ctx)
	return h.server.Shutdown(ctx)
}
