package usecase

import (
	"context"
	"fmt"
	"strings"

	"office-agent/internal/mail/domain"
	"office-agent/internal/mail/repository"
	"office-agent/pkg/metrics"
	"office-agent/pkg/smtp"
	"office-agent/pkg/utils/crypto"

	"github.com/rs/zerolog/log"
)

type mailUsecase struct {
	configRepo    repository.EmailConfigRepository
	sentRepo      repository.SentEmailRepository
	sender        smtp.Sender
	encryptionKey string
}

// NewMailUsecase creates a new instance of mailUsecase
func NewMailUsecase(
	configRepo repository.EmailConfigRepository,
	sentRepo repository.SentEmailRepository,
	sender smtp.Sender,
	encryptionKey string,
) MailUsecase {
	return &mailUsecase{
		configRepo:    configRepo,
		sentRepo:      sentRepo,
		sender:        sender,
		encryptionKey: encryptionKey,
	}
}

func (u *mailUsecase) SendWithDefaultConfig(ctx context.Context, userID string, req SendRequest) (*SendResult, error) {
	req.ConfigID = ""
	return u.Send(ctx, userID, req)
}

func (u *mailUsecase) Send(ctx context.Context, userID string, req SendRequest) (*SendResult, error) {
	req.To = cleanAddresses(req.To)
	req.Cc = cleanAddresses(req.Cc)
	if len(req.To) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", domain.ErrInvalidRequest)
	}

	cfg, err := u.loadConfig(userID, req.ConfigID)
	if err != nil {
		return nil, err
	}

	html := req.HTML
	if html == "" {
		html = smtp.TextToHTML(req.Body)
	}
	msg := smtp.Message{
		From:     cfg.SMTPUser,
		FromName: cfg.FromName,
		To:       req.To,
		Cc:       req.Cc,
		Subject:  req.Subject,
		Text:     req.Body,
		HTML:     html,

		Attachments: req.Attachments,
	}

	messageID, sendErr := u.deliver(ctx, cfg, msg)

	record := &domain.SentEmail{
		UserID:    userID,
		Recipient: strings.Join(req.To, ", "),
		Cc:        strings.Join(req.Cc, ", "),
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    domain.StatusSent,
		MessageID: messageID,
	}
	if sendErr != nil {
		record.Status = domain.StatusFailed
		record.ErrorMessage = sendErr.Error()
	}
	metrics.EmailsSent.WithLabelValues(record.Status).Inc()
	if err := u.sentRepo.Create(record); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("[Mail] Failed to record sent email")
	}

	if sendErr != nil {
		log.Warn().Err(sendErr).Str("user_id", userID).Str("host", cfg.SMTPHost).Msg("[Mail] Send failed")
		return nil, sendErr
	}

	log.Info().Str("user_id", userID).Int("recipients", len(req.To)).Str("message_id", messageID).Msg("[Mail] Email sent")
	return &SendResult{MessageID: messageID, Recipients: req.To}, nil
}

// deliver is the only place the SMTP password exists in plaintext
func (u *mailUsecase) deliver(ctx context.Context, cfg *domain.EmailConfig, msg smtp.Message) (string, error) {
	password, err := crypto.Decrypt(cfg.SMTPPassword, u.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt smtp password: %w", err)
	}
	return u.sender.Send(ctx, smtp.Credentials{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Secure:   cfg.Secure(),
		Username: cfg.SMTPUser,
		Password: password,
	}, msg)
}

func (u *mailUsecase) loadConfig(userID, configID string) (*domain.EmailConfig, error) {
	var (
		cfg *domain.EmailConfig
		err error
	)
	if configID != "" {
		cfg, err = u.configRepo.FindByID(userID, configID)
		if err == nil && cfg == nil {
			return nil, domain.ErrEmailConfigNotFound
		}
	} else {
		cfg, err = u.configRepo.FindDefault(userID)
		if err == nil && cfg == nil {
			return nil, domain.ErrNoEmailConfig
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load email config: %w", err)
	}
	return cfg, nil
}

func (u *mailUsecase) SendBulk(ctx context.Context, userID string, reqs []SendRequest) []BulkResult {
	results := make([]BulkResult, 0, len(reqs))
	for _, req := range reqs {
		res := BulkResult{To: req.To}
		sent, err := u.Send(ctx, userID, req)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
			res.MessageID = sent.MessageID
		}
		results = append(results, res)
	}
	return results
}

func (u *mailUsecase) History(userID string, limit int) ([]*domain.SentEmail, error) {
	return u.sentRepo.FindByUserID(userID, limit)
}

func (u *mailUsecase) SaveConfig(userID string, input ConfigInput) (*domain.EmailConfig, error) {
	if input.SMTPHost == "" || input.SMTPUser == "" || input.SMTPPassword == "" {
		return nil, fmt.Errorf("%w: smtp_host, smtp_user and smtp_password are required", domain.ErrInvalidRequest)
	}
	if input.SMTPPort <= 0 || input.SMTPPort > 65535 {
		return nil, fmt.Errorf("%w: invalid smtp_port %d", domain.ErrInvalidRequest, input.SMTPPort)
	}
	if input.ConfigName == "" {
		input.ConfigName = "default"
	}

	encrypted, err := crypto.Encrypt(input.SMTPPassword, u.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt smtp password: %w", err)
	}

	cfg := &domain.EmailConfig{
		UserID:       userID,
		ConfigName:   input.ConfigName,
		SMTPHost:     input.SMTPHost,
		SMTPPort:     input.SMTPPort,
		SMTPUser:     input.SMTPUser,
		SMTPPassword: encrypted,
		FromName:     input.FromName,
		IsDefault:    input.IsDefault,
	}
	if err := u.configRepo.Upsert(cfg); err != nil {
		return nil, fmt.Errorf("failed to save email config: %w", err)
	}
	log.Info().Str("user_id", userID).Str("config", cfg.ConfigName).Msg("[Mail] Email config saved")
	return cfg, nil
}

func (u *mailUsecase) GetConfigs(userID string) ([]*domain.EmailConfig, error) {
	return u.configRepo.FindByUserID(userID)
}

func (u *mailUsecase) DeleteConfig(userID, configID string) error {
	deleted, err := u.configRepo.Delete(userID, configID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrEmailConfigNotFound
	}
	return nil
}

func (u *mailUsecase) TestConfig(ctx context.Context, userID, configID string) error {
	cfg, err := u.loadConfig(userID, configID)
	if err != nil {
		return err
	}
	password, err := crypto.Decrypt(cfg.SMTPPassword, u.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decrypt smtp password: %w", err)
	}
	return u.sender.Verify(ctx, smtp.Credentials{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Secure:   cfg.Secure(),
		Username: cfg.SMTPUser,
		Password: password,
	})
}

func cleanAddresses(addrs []string) []string {
	var out []string
	for _, a := range addrs {
		out = append(out, smtp.SplitAddresses(a)...)
	}
	return out
}
