package scheduler

import (
	"context"
	"sync"
	"time"

	"office-agent/internal/inbox/domain"
	"office-agent/internal/inbox/usecase"

	"github.com/rs/zerolog/log"
)

// ConfigSource lists the mailboxes that opted into auto-scan
type ConfigSource interface {
	FindAutoScanSystem() ([]*domain.ImapConfig, error)
}

// Scanner runs one triage pass for a user
type Scanner interface {
	ScanInbox(ctx context.Context, userID string) (*usecase.ScanResult, error)
}

// AutoScanScheduler periodically scans mailboxes whose interval has elapsed
type AutoScanScheduler struct {
	configs     ConfigSource
	scanner     Scanner
	interval    time.Duration
	scanTimeout time.Duration
	now         func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// NewAutoScanScheduler creates a new scheduler. interval defaults to one minute.
func NewAutoScanScheduler(configs ConfigSource, scanner Scanner, interval, scanTimeout time.Duration) *AutoScanScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if scanTimeout <= 0 {
		scanTimeout = 2 * time.Minute
	}
	return &AutoScanScheduler{
		configs:     configs,
		scanner:     scanner,
		interval:    interval,
		scanTimeout: scanTimeout,
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *AutoScanScheduler) Start() {
	log.Info().Dur("interval", s.interval).Msg("[AutoScan] Starting inbox auto-scan scheduler")

	s.done.Add(1)
	go func() {
		defer s.done.Done()

		s.RunOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce()
			case <-s.stopChan:
				log.Info().Msg("[AutoScan] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop signals the loop and waits for an in-flight pass to finish
func (s *AutoScanScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.done.Wait()
}

// RunOnce scans every due mailbox once. Returns the number of users scanned.
func (s *AutoScanScheduler) RunOnce() int {
	configs, err := s.configs.FindAutoScanSystem()
	if err != nil {
		log.Error().Err(err).Msg("[AutoScan] Error listing auto-scan configs")
		return 0
	}

	now := s.now()
	scanned := make(map[string]bool)
	for _, cfg := range configs {
		if scanned[cfg.UserID] || !cfg.DueForScan(now) {
			continue
		}
		// ScanInbox picks the user's active config, so one pass per user
		scanned[cfg.UserID] = true

		select {
		case <-s.stopChan:
			return len(scanned) - 1
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
		result, err := s.scanner.ScanInbox(ctx, cfg.UserID)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("user_id", cfg.UserID).Msg("[AutoScan] Scan failed")
			continue
		}
		log.Info().
			Str("user_id", cfg.UserID).
			Int("new", result.EmailsNew).
			Int("drafts", result.DraftsCreated).
			Msg("[AutoScan] Scan finished")
	}
	return len(scanned)
}
