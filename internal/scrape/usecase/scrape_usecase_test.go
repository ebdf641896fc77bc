package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"office-agent/internal/scrape/domain"
	"office-agent/pkg/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJobRepo struct {
	jobs map[string]*domain.ScrapeJob
	seq  int
}

func (m *memJobRepo) Create(job *domain.ScrapeJob) error {
	m.seq++
	job.ID = fmt.Sprintf("job-%d", m.seq)
	m.jobs[job.ID] = job
	return nil
}

func (m *memJobRepo) Update(job *domain.ScrapeJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *memJobRepo) FindByID(userID, id string) (*domain.ScrapeJob, error) {
	if j, ok := m.jobs[id]; ok && j.UserID == userID {
		return j, nil
	}
	return nil, nil
}

func (m *memJobRepo) Delete(userID, id string) (bool, error) {
	if j, ok := m.jobs[id]; ok && j.UserID == userID {
		delete(m.jobs, id)
		return true, nil
	}
	return false, nil
}

func (m *memJobRepo) FindByUserID(userID string, limit int) ([]*domain.ScrapeJob, error) {
	var out []*domain.ScrapeJob
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Shop</title></head><body><span class="price"> 10 </span><span class="price">20</span></body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestUsecase() (ScrapeUsecase, *memJobRepo) {
	repo := &memJobRepo{jobs: map[string]*domain.ScrapeJob{}}
	s := scraper.New(scraper.NewHTTPFetcher("office-agent-test", 5*time.Second))
	return NewScrapeUsecase(repo, s, 5*time.Second), repo
}

func TestScrape_PersistsCompletedJob(t *testing.T) {
	srv := newServer(t)
	uc, repo := newTestUsecase()

	job, err := uc.Scrape(context.Background(), "u1", srv.URL, map[string]string{"prices": ".price"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, []string{"10", "20"}, job.ResultData["prices"])
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, job, repo.jobs[job.ID])
}

func TestScrape_PersistsFailedJob(t *testing.T) {
	srv := newServer(t)
	uc, repo := newTestUsecase()

	job, err := uc.Scrape(context.Background(), "u1", srv.URL+"/missing", nil)
	require.Error(t, err)
	require.NotNil(t, job)
	assert.Equal(t, domain.StatusFailed, repo.jobs[job.ID].Status)
	assert.NotEmpty(t, repo.jobs[job.ID].ErrorMessage)
}

func TestScrape_InvalidURLWritesNothing(t *testing.T) {
	uc, repo := newTestUsecase()

	_, err := uc.Scrape(context.Background(), "u1", "ftp://example.com", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, repo.jobs)
}

func TestScrapeMultiple_CollectsFailures(t *testing.T) {
	srv := newServer(t)
	uc, _ := newTestUsecase()

	results := uc.ScrapeMultiple(context.Background(), "u1", []string{srv.URL, "not a url", srv.URL + "/missing"}, nil)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, "Shop", results[0].Data["title"])
	assert.False(t, results[1].Success)
	assert.Empty(t, results[1].JobID)
	assert.False(t, results[2].Success)
	assert.NotEmpty(t, results[2].JobID)
}

func TestGet_ScopedToOwner(t *testing.T) {
	srv := newServer(t)
	uc, _ := newTestUsecase()

	job, err := uc.Scrape(context.Background(), "u1", srv.URL, nil)
	require.NoError(t, err)

	_, err = uc.Get("u2", job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	got, err := uc.Get("u1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestDelete(t *testing.T) {
	srv := newServer(t)
	uc, repo := newTestUsecase()

	job, err := uc.Scrape(context.Background(), "u1", srv.URL, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Delete("u2", job.ID), domain.ErrJobNotFound)
	require.NoError(t, uc.Delete("u1", job.ID))
	assert.Empty(t, repo.jobs)
	assert.ErrorIs(t, uc.Delete("u1", job.ID), domain.ErrJobNotFound)

	repo.jobs["busy"] = &domain.ScrapeJob{ID: "busy", UserID: "u1", Status: domain.StatusRunning}
	assert.ErrorIs(t, uc.Delete("u1", "busy"), domain.ErrJobRunning)
	assert.Contains(t, repo.jobs, "busy")
}
