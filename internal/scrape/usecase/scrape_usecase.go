package usecase

import (
	"context"
	"fmt"
	"time"

	"office-agent/internal/scrape/domain"
	"office-agent/internal/scrape/repository"
	"office-agent/pkg/scraper"

	"github.com/rs/zerolog/log"
)

// ScrapeUsecase defines the interface for scraping pages on behalf of a user
type ScrapeUsecase interface {
	// Scrape fetches url and persists the job as completed or failed
	Scrape(ctx context.Context, userID, url string, selectors map[string]string) (*domain.ScrapeJob, error)
	// ScrapeMultiple scrapes each url independently, collecting failures
	ScrapeMultiple(ctx context.Context, userID string, urls []string, selectors map[string]string) []MultiResult
	List(userID string, limit int) ([]*domain.ScrapeJob, error)
	Get(userID, id string) (*domain.ScrapeJob, error)
	// Delete removes a finished job; running jobs are refused
	Delete(userID, id string) error
}

// PageScraper is implemented by *scraper.Scraper
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string, selectors map[string]string) (map[string]interface{}, error)
}

// MultiResult is one entry of ScrapeMultiple
type MultiResult struct {
	URL     string                 `json:"url"`
	Success bool                   `json:"success"`
	JobID   string                 `json:"job_id,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type scrapeUsecase struct {
	repo    repository.ScrapeJobRepository
	scraper PageScraper
	timeout time.Duration
}

// NewScrapeUsecase creates a new instance of scrapeUsecase
func NewScrapeUsecase(repo repository.ScrapeJobRepository, s PageScraper, timeout time.Duration) ScrapeUsecase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &scrapeUsecase{repo: repo, scraper: s, timeout: timeout}
}

func (u *scrapeUsecase) Scrape(ctx context.Context, userID, url string, selectors map[string]string) (*domain.ScrapeJob, error) {
	if err := scraper.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	job := &domain.ScrapeJob{
		UserID:    userID,
		URL:       url,
		Selectors: selectors,
		Status:    domain.StatusRunning,
	}
	if err := u.repo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create scrape job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	data, scrapeErr := u.scraper.Scrape(ctx, url, selectors)

	now := time.Now()
	job.CompletedAt = &now
	if scrapeErr != nil {
		job.Status = domain.StatusFailed
		job.ErrorMessage = scrapeErr.Error()
	} else {
		job.Status = domain.StatusCompleted
		job.ResultData = data
	}
	if err := u.repo.Update(job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("[Scrape] Failed to update job")
	}

	if scrapeErr != nil {
		log.Warn().Err(scrapeErr).Str("user_id", userID).Str("url", url).Msg("[Scrape] Scrape failed")
		return job, scrapeErr
	}
	log.Info().Str("user_id", userID).Str("url", url).Int("fields", len(data)).Msg("[Scrape] Scrape completed")
	return job, nil
}

func (u *scrapeUsecase) ScrapeMultiple(ctx context.Context, userID string, urls []string, selectors map[string]string) []MultiResult {
	results := make([]MultiResult, 0, len(urls))
	for _, url := range urls {
		res := MultiResult{URL: url}
		job, err := u.Scrape(ctx, userID, url, selectors)
		if job != nil {
			res.JobID = job.ID
		}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
			res.Data = job.ResultData
		}
		results = append(results, res)
	}
	return results
}

func (u *scrapeUsecase) List(userID string, limit int) ([]*domain.ScrapeJob, error) {
	return u.repo.FindByUserID(userID, limit)
}

func (u *scrapeUsecase) Get(userID, id string) (*domain.ScrapeJob, error) {
	job, err := u.repo.FindByID(userID, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (u *scrapeUsecase) Delete(userID, id string) error {
	job, err := u.Get(userID, id)
	if err != nil {
		return err
	}
	if job.Status == domain.StatusRunning {
		return domain.ErrJobRunning
	}
	deleted, err := u.repo.Delete(userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete scrape job: %w", err)
	}
	if !deleted {
		return domain.ErrJobNotFound
	}
	log.Info().Str("user_id", userID).Str("job_id", id).Msg("[Scrape] Job deleted")
	return nil
}
