package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"office-agent/internal/inbox/domain"
	"office-agent/internal/inbox/repository"
	mailusecase "office-agent/internal/mail/usecase"
	"office-agent/pkg/fcm"
	"office-agent/pkg/fuzzy"
	"office-agent/pkg/imap"
	"office-agent/pkg/metrics"
	"office-agent/pkg/utils/crypto"

	"github.com/rs/zerolog/log"
)

const (
	defaultScanLimit   = 20
	searchCorpusLimit  = 200
	defaultSearchLimit = 20
)

// MailSender sends a reply through the user's default SMTP config and records it
type MailSender interface {
	SendWithDefaultConfig(ctx context.Context, userID string, req mailusecase.SendRequest) (*mailusecase.SendResult, error)
}

// Notifier pushes scan results to the user's devices
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, n fcm.Notification)
}

// Repositories groups the stores the pipeline writes to
type Repositories struct {
	Configs  repository.ImapConfigRepository
	Emails   repository.InboxEmailRepository
	Drafts   repository.DraftRepository
	ScanLogs repository.ScanLogRepository
}

type inboxUsecase struct {
	repos         Repositories
	fetcher       imap.Fetcher
	classifier    *Classifier
	mail          MailSender
	notifier      Notifier
	encryptionKey string
	scanLimit     int
	drafts        *draftLocks
	now           func() time.Time
}

// NewInboxUsecase creates a new instance of inboxUsecase. notifier may be nil.
func NewInboxUsecase(
	repos Repositories,
	fetcher imap.Fetcher,
	classifier *Classifier,
	mail MailSender,
	notifier Notifier,
	encryptionKey string,
	scanLimit int,
) InboxUsecase {
	if scanLimit <= 0 {
		scanLimit = defaultScanLimit
	}
	return &inboxUsecase{
		repos:         repos,
		fetcher:       fetcher,
		classifier:    classifier,
		mail:          mail,
		notifier:      notifier,
		encryptionKey: encryptionKey,
		scanLimit:     scanLimit,
		drafts:        newDraftLocks(),
		now:           time.Now,
	}
}

func (u *inboxUsecase) ScanInbox(ctx context.Context, userID string) (*ScanResult, error) {
	cfg, err := u.repos.Configs.FindActive(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load IMAP config: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrNoImapConfig
	}

	scanLog := &domain.EmailScanLog{
		UserID:        userID,
		ImapConfigID:  cfg.ID,
		ScanStartedAt: u.now(),
		Status:        domain.ScanRunning,
	}
	if err := u.repos.ScanLogs.CreateSystem(scanLog); err != nil {
		return nil, fmt.Errorf("failed to create scan log: %w", err)
	}

	log.Info().Str("user_id", userID).Str("host", cfg.ImapHost).Msg("[Inbox] Scan started")

	messages, err := u.fetch(ctx, cfg)
	if err != nil {
		u.finishScan(scanLog, err)
		log.Error().Err(err).Str("user_id", userID).Msg("[Inbox] Scan failed")
		return nil, err
	}

	result := &ScanResult{EmailsFound: len(messages), ScanLogID: scanLog.ID}
	for _, msg := range messages {
		u.processMessage(ctx, userID, msg, result)
	}

	scanLog.EmailsFound = result.EmailsFound
	scanLog.EmailsNew = result.EmailsNew
	scanLog.EmailsProcessed = result.EmailsProcessed
	u.finishScan(scanLog, nil)
	if err := u.repos.Configs.TouchLastScanSystem(cfg.ID, u.now()); err != nil {
		log.Warn().Err(err).Str("config_id", cfg.ID).Msg("[Inbox] Failed to update last_scan_at")
	}

	result.Success = true
	log.Info().
		Str("user_id", userID).
		Int("found", result.EmailsFound).
		Int("new", result.EmailsNew).
		Int("drafts", result.DraftsCreated).
		Msg("[Inbox] Scan completed")

	u.notifyScan(ctx, userID, result)
	return result, nil
}

// fetch is the only place the IMAP password exists in plaintext
func (u *inboxUsecase) fetch(ctx context.Context, cfg *domain.ImapConfig) ([]*imap.Message, error) {
	password, err := crypto.Decrypt(cfg.ImapPassword, u.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt imap password: %w", err)
	}
	return u.fetcher.FetchRecent(ctx, imap.Credentials{
		Host:     cfg.ImapHost,
		Port:     cfg.ImapPort,
		Username: cfg.ImapUser,
		Password: password,
		UseSSL:   cfg.UseSSL,
	}, u.scanLimit)
}

func (u *inboxUsecase) finishScan(scanLog *domain.EmailScanLog, scanErr error) {
	completed := u.now()
	scanLog.ScanCompletedAt = &completed
	scanLog.Status = domain.ScanCompleted
	if scanErr != nil {
		scanLog.Status = domain.ScanFailed
		scanLog.ErrorMessage = scanErr.Error()
	}
	if err := u.repos.ScanLogs.UpdateSystem(scanLog); err != nil {
		log.Warn().Err(err).Str("scan_log_id", scanLog.ID).Msg("[Inbox] Failed to update scan log")
	}
}

// processMessage classifies, stores and maybe drafts one message. Failures
// are logged and counted, never returned.
func (u *inboxUsecase) processMessage(ctx context.Context, userID string, msg *imap.Message, result *ScanResult) {
	exists, err := u.repos.Emails.ExistsByMessageID(userID, msg.MessageID)
	if err != nil {
		metrics.InboxEmails.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("message_id", msg.MessageID).Msg("[Inbox] Duplicate check failed")
		return
	}
	if exists {
		metrics.InboxEmails.WithLabelValues("duplicate").Inc()
		result.EmailsProcessed++
		return
	}

	analysis := u.classifier.Classify(ctx, msg)

	subject := msg.Subject
	if subject == "" {
		subject = "No Subject"
	}
	email := &domain.InboxEmail{
		UserID:            userID,
		MessageID:         msg.MessageID,
		FromAddress:       msg.FromAddress,
		FromName:          msg.FromName,
		ToAddress:         msg.To,
		Subject:           subject,
		BodyText:          msg.Text,
		BodyHTML:          msg.HTML,
		ReceivedAt:        msg.Date,
		HasAttachments:    msg.HasAttachments(),
		AttachmentsCount:  msg.AttachmentsCount,
		AIAnalyzed:        true,
		AIPriority:        analysis.Priority,
		AICategory:        analysis.Category,
		AISentiment:       analysis.Sentiment,
		AISummary:         analysis.Summary,
		AISuggestedAction: analysis.SuggestedAction,
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = u.now()
	}

	inserted, err := u.repos.Emails.InsertIfAbsent(email)
	if err != nil {
		metrics.InboxEmails.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("message_id", msg.MessageID).Msg("[Inbox] Failed to save email")
		return
	}
	result.EmailsProcessed++
	if !inserted {
		// a concurrent scan stored it first
		metrics.InboxEmails.WithLabelValues("duplicate").Inc()
		return
	}

	metrics.InboxEmails.WithLabelValues("new").Inc()
	result.EmailsNew++
	if email.AIPriority == domain.PriorityUrgent {
		result.UrgentEmails++
	}

	if analysis.SuggestedAction != domain.ActionReply {
		return
	}
	draft, err := u.classifier.Draft(ctx, msg)
	if err != nil {
		log.Warn().Err(err).Str("email_id", email.ID).Msg("[Inbox] Draft generation failed")
		return
	}
	draft.UserID = userID
	draft.InboxEmailID = email.ID
	if err := u.repos.Drafts.Create(draft); err != nil {
		log.Error().Err(err).Str("email_id", email.ID).Msg("[Inbox] Failed to save draft")
		return
	}
	result.DraftsCreated++
}

func (u *inboxUsecase) notifyScan(ctx context.Context, userID string, result *ScanResult) {
	if u.notifier == nil || (result.UrgentEmails == 0 && result.DraftsCreated == 0) {
		return
	}

	var parts []string
	if result.UrgentEmails > 0 {
		parts = append(parts, fmt.Sprintf("%d urgent email(s)", result.UrgentEmails))
	}
	if result.DraftsCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d draft reply(ies) to review", result.DraftsCreated))
	}
	u.notifier.NotifyUser(ctx, userID, fcm.Notification{
		Title: fmt.Sprintf("%d new email(s) triaged", result.EmailsNew),
		Body:  strings.Join(parts, ", "),
		Data: map[string]string{
			"type":        "inbox_scan",
			"scan_log_id": result.ScanLogID,
		},
		Link: "/email-inbox",
	})
}

func (u *inboxUsecase) loadDraft(userID, draftID string) (*domain.AIDraft, error) {
	draft, err := u.repos.Drafts.FindByID(userID, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if draft == nil {
		return nil, domain.ErrDraftNotFound
	}
	return draft, nil
}

// SendApprovedDraft holds the draft lock across the status check, the SMTP
// call and MarkSent, so a second request sees the sent status.
func (u *inboxUsecase) SendApprovedDraft(ctx context.Context, userID, draftID string) (*domain.AIDraft, error) {
	release := u.drafts.lock(draftID)
	defer release()

	draft, err := u.loadDraft(userID, draftID)
	if err != nil {
		return nil, err
	}
	switch draft.Status {
	case domain.DraftSent:
		return nil, domain.ErrDraftAlreadySent
	case domain.DraftRejected:
		return nil, domain.ErrDraftRejected
	}

	res, err := u.mail.SendWithDefaultConfig(ctx, userID, mailusecase.SendRequest{
		To:      []string{draft.ToAddress},
		Cc:      draft.CcAddresses,
		Subject: draft.Subject,
		Body:    draft.BodyToSend(),
	})
	if err != nil {
		return nil, err
	}

	sentAt := u.now()
	marked, err := u.repos.Drafts.MarkSent(userID, draft.ID, res.MessageID, sentAt)
	if err != nil {
		return nil, fmt.Errorf("email sent but draft status not updated: %w", err)
	}
	if !marked {
		log.Warn().Str("draft_id", draft.ID).Msg("[Inbox] Draft was marked sent by a concurrent request")
		return nil, domain.ErrDraftAlreadySent
	}

	draft.Status = domain.DraftSent
	draft.SentAt = &sentAt
	draft.SentMessageID = res.MessageID
	log.Info().Str("user_id", userID).Str("draft_id", draft.ID).Str("message_id", res.MessageID).Msg("[Inbox] Draft sent")
	return draft, nil
}

func (u *inboxUsecase) UpdateDraft(ctx context.Context, userID, draftID string, patch DraftPatch) (*domain.AIDraft, error) {
	if patch.Status == nil && patch.EditedBody == nil {
		return nil, fmt.Errorf("%w: status or edited_body is required", domain.ErrInvalidRequest)
	}

	release := u.drafts.lock(draftID)
	defer release()

	draft, err := u.loadDraft(userID, draftID)
	if err != nil {
		return nil, err
	}

	if patch.EditedBody != nil {
		if !draft.Status.CanTransition(domain.DraftEdited) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, draft.Status, domain.DraftEdited)
		}
		draft.EditedBody = *patch.EditedBody
		draft.UserEdited = true
		draft.Status = domain.DraftEdited
	}

	if patch.Status != nil {
		next := *patch.Status
		switch next {
		case domain.DraftPending, domain.DraftEdited, domain.DraftApproved, domain.DraftRejected, domain.DraftSent:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRequest, next)
		}
		// sending goes through SendApprovedDraft
		if next == domain.DraftSent {
			return nil, fmt.Errorf("%w: use the send endpoint to send a draft", domain.ErrInvalidTransition)
		}
		if next != draft.Status || patch.EditedBody == nil {
			if !draft.Status.CanTransition(next) {
				return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, draft.Status, next)
			}
			draft.Status = next
		}
	}

	if err := u.repos.Drafts.Update(draft); err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return draft, nil
}

func (u *inboxUsecase) RejectDraft(ctx context.Context, userID, draftID string) (*domain.AIDraft, error) {
	rejected := domain.DraftRejected
	return u.UpdateDraft(ctx, userID, draftID, DraftPatch{Status: &rejected})
}

func (u *inboxUsecase) ListDrafts(userID string, status domain.DraftStatus) ([]*domain.AIDraft, error) {
	if status == "" {
		status = domain.DraftPending
	}
	return u.repos.Drafts.ListByStatus(userID, status)
}

func (u *inboxUsecase) ListEmails(userID string, filter domain.EmailFilter) ([]*domain.InboxEmail, error) {
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidRequest, filter.Priority)
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidRequest, filter.Category)
	}
	return u.repos.Emails.List(userID, filter)
}

func (u *inboxUsecase) GetEmail(userID, emailID string) (*EmailDetail, error) {
	email, err := u.repos.Emails.FindByID(userID, emailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, domain.ErrEmailNotFound
	}

	draft, err := u.repos.Drafts.FindLatestForEmail(userID, emailID)
	if err != nil {
		return nil, err
	}
	return &EmailDetail{Email: email, Draft: draft}, nil
}

func (u *inboxUsecase) UpdateEmailFlags(userID, emailID string, flags domain.FlagUpdate) (*domain.InboxEmail, error) {
	if flags.Empty() {
		return nil, fmt.Errorf("%w: no flags to update", domain.ErrInvalidRequest)
	}
	found, err := u.repos.Emails.UpdateFlags(userID, emailID, flags)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrEmailNotFound
	}
	return u.repos.Emails.FindByID(userID, emailID)
}

func (u *inboxUsecase) SearchEmails(userID, query string, limit int) ([]*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	corpus, err := u.repos.Emails.Recent(userID, searchCorpusLimit)
	if err != nil {
		return nil, err
	}

	var results []*SearchResult
	for _, email := range corpus {
		score := fuzzy.Score(query, fuzzy.Document{
			Subject:  email.Subject,
			From:     email.FromAddress,
			FromName: email.FromName,
			Summary:  email.AISummary,
			Body:     email.BodyText,
		})
		if score > 0 {
			results = append(results, &SearchResult{Email: email, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Email.ReceivedAt.After(results[j].Email.ReceivedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (u *inboxUsecase) Stats(userID string) (*domain.Stats, error) {
	return u.repos.Emails.Stats(userID)
}

func (u *inboxUsecase) SaveImapConfig(userID string, input ImapConfigInput) (*domain.ImapConfig, error) {
	if input.ImapHost == "" || input.ImapUser == "" || input.ImapPassword == "" {
		return nil, fmt.Errorf("%w: imap_host, imap_user and imap_password are required", domain.ErrInvalidRequest)
	}
	if input.ImapPort == 0 {
		input.ImapPort = 993
	}
	if input.ImapPort < 0 || input.ImapPort > 65535 {
		return nil, fmt.Errorf("%w: invalid imap_port %d", domain.ErrInvalidRequest, input.ImapPort)
	}
	if input.ScanIntervalMinutes <= 0 {
		input.ScanIntervalMinutes = 5
	}
	if input.ConfigName == "" {
		input.ConfigName = "default"
	}

	encrypted, err := crypto.Encrypt(input.ImapPassword, u.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt imap password: %w", err)
	}

	cfg := &domain.ImapConfig{
		UserID:              userID,
		ConfigName:          input.ConfigName,
		ImapHost:            input.ImapHost,
		ImapPort:            input.ImapPort,
		ImapUser:            input.ImapUser,
		ImapPassword:        encrypted,
		UseSSL:              input.UseSSL == nil || *input.UseSSL,
		AutoScan:            input.AutoScan == nil || *input.AutoScan,
		ScanIntervalMinutes: input.ScanIntervalMinutes,
		IsActive:            true,
	}
	if err := u.repos.Configs.Upsert(cfg); err != nil {
		return nil, fmt.Errorf("failed to save IMAP config: %w", err)
	}
	log.Info().Str("user_id", userID).Str("config", cfg.ConfigName).Msg("[Inbox] IMAP config saved")
	return cfg, nil
}

func (u *inboxUsecase) GetImapConfigs(userID string) ([]*domain.ImapConfig, error) {
	return u.repos.Configs.FindByUserID(userID)
}
