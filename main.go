package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	api "office-agent/cmd/api"
	authdomain "office-agent/internal/auth/domain"
	authUsecase "office-agent/internal/auth/usecase"
	crondomain "office-agent/internal/cron/domain"
	docdomain "office-agent/internal/document/domain"
	inboxdomain "office-agent/internal/inbox/domain"
	maildomain "office-agent/internal/mail/domain"
	scrapedomain "office-agent/internal/scrape/domain"
	templatedomain "office-agent/internal/template/domain"
	"office-agent/pkg/config"
	"office-agent/pkg/database"
	"office-agent/pkg/logger"
	"office-agent/pkg/utils/crypto"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	logger.Setup(cfg)

	root := &cobra.Command{
		Use:           "office-agent",
		Short:         "AI office assistant backend: chat agent, inbox triage and scheduled tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		serveCmd(cfg),
		migrateCmd(cfg),
		keygenCmd(),
		encryptCmd(cfg),
		scanCmd(cfg),
		tokenCmd(cfg),
	)

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func models() []interface{} {
	return []interface{}{
		&authdomain.FCMToken{},
		&maildomain.EmailConfig{},
		&maildomain.SentEmail{},
		&templatedomain.EmailTemplate{},
		&templatedomain.EmailAttachment{},
		&docdomain.PDFFile{},
		&scrapedomain.ScrapeJob{},
		&crondomain.CronJob{},
		&inboxdomain.ImapConfig{},
		&inboxdomain.InboxEmail{},
		&inboxdomain.AIDraft{},
		&inboxdomain.EmailScanLog{},
	}
}

func connect(cfg *config.Config, migrate bool) (*gorm.DB, error) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.AutoMigrate(models()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return db, nil
}

func requireEncryptionKey(cfg *config.Config) error {
	if cfg.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is not set (generate one with `office-agent keygen`)")
	}
	return nil
}

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the cron registry and the inbox auto-scanner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEncryptionKey(cfg); err != nil {
				return err
			}
			db, err := connect(cfg, true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := api.NewHandler(ctx, cfg, db)

			errCh := make(chan error, 1)
			go func() { errCh <- handler.Start(ctx) }()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := handler.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(cfg, true); err != nil {
				return err
			}
			log.Info().Int("models", len(models())).Msg("Database migrated")
			return nil
		},
	}
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new random ENCRYPTION_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func encryptCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a secret read from stdin with ENCRYPTION_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEncryptionKey(cfg); err != nil {
				return err
			}
			secret, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && secret == "" {
				return fmt.Errorf("failed to read secret from stdin: %w", err)
			}
			secret = strings.TrimRight(secret, "\r\n")
			if secret == "" {
				return errors.New("empty secret")
			}

			encrypted, err := crypto.Encrypt(secret, cfg.EncryptionKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encrypted)
			return nil
		},
	}
}

func scanCmd(cfg *config.Config) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one inbox triage scan for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEncryptionKey(cfg); err != nil {
				return err
			}
			db, err := connect(cfg, false)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := api.NewHandler(ctx, cfg, db).Inbox().ScanInbox(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "found=%d new=%d processed=%d drafts=%d urgent=%d scan_log=%s\n",
				result.EmailsFound, result.EmailsNew, result.EmailsProcessed,
				result.DraftsCreated, result.UrgentEmails, result.ScanLogID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to scan for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func tokenCmd(cfg *config.Config) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := authUsecase.NewAuthUsecase(nil, cfg.JWTSecret).IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
