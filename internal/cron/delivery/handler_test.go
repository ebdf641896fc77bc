package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"office-agent/internal/cron/domain"
	"office-agent/internal/cron/scheduler"
	"office-agent/internal/cron/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCronUsecase struct {
	usecase.CronUsecase
	err     error
	enabled *bool
	created usecase.CreateJobInput
}

func (s *stubCronUsecase) CreateJob(_ context.Context, userID string, input usecase.CreateJobInput) (*domain.CronJob, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CronJob{ID: "j1", UserID: userID, Name: input.Name, Schedule: input.Schedule}, nil
}

func (s *stubCronUsecase) ListJobs(_ string, enabled *bool) ([]*domain.CronJob, error) {
	s.enabled = enabled
	return nil, s.err
}

func (s *stubCronUsecase) GetJob(userID, jobID string) (*domain.CronJob, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CronJob{ID: jobID, UserID: userID}, nil
}

func (s *stubCronUsecase) UpdateJob(_ context.Context, userID, jobID string, _ usecase.UpdateJobInput) (*domain.CronJob, error) {
	return s.GetJob(userID, jobID)
}

func (s *stubCronUsecase) StartJob(userID, jobID string) (*domain.CronJob, error) {
	return s.GetJob(userID, jobID)
}

func (s *stubCronUsecase) StopJob(userID, jobID string) (*domain.CronJob, error) {
	return s.GetJob(userID, jobID)
}

func (s *stubCronUsecase) DeleteJob(_, _ string) error {
	return s.err
}

func (s *stubCronUsecase) ListActive(_ string) []string {
	return nil
}

func newRouter(uc usecase.CronUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) { c.Set("userID", "u1"); c.Next() })
	NewCronHandler(uc).RegisterRoutes(api)
	return r
}

func TestCronRoutes_Status(t *testing.T) {
	validCreate := `{"name":"Daily","schedule":"0 9 * * *","task_type":"pdf"}`

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		err    error
		want   int
	}{
		{"create", http.MethodPost, "/api/cron/create", validCreate, nil, http.StatusCreated},
		{"create missing fields", http.MethodPost, "/api/cron", `{"name":"Daily"}`, nil, http.StatusBadRequest},
		{"create bad schedule", http.MethodPost, "/api/cron", validCreate, fmt.Errorf("%w: nope", scheduler.ErrInvalidSchedule), http.StatusBadRequest},
		{"create invalid task", http.MethodPost, "/api/cron", validCreate, fmt.Errorf("%w: task_type", domain.ErrInvalidRequest), http.StatusBadRequest},
		{"get", http.MethodGet, "/api/cron/j1", "", nil, http.StatusOK},
		{"get missing", http.MethodGet, "/api/cron/j1", "", domain.ErrCronJobNotFound, http.StatusNotFound},
		{"update malformed", http.MethodPut, "/api/cron/j1", `{"name":`, nil, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/cron/j1", `{"name":"x"}`, domain.ErrCronJobNotFound, http.StatusNotFound},
		{"start missing", http.MethodPost, "/api/cron/j1/start", "", domain.ErrCronJobNotFound, http.StatusNotFound},
		{"stop", http.MethodPost, "/api/cron/j1/stop", "", nil, http.StatusOK},
		{"delete", http.MethodDelete, "/api/cron/j1", "", nil, http.StatusOK},
		{"delete failure", http.MethodDelete, "/api/cron/j1", "", assert.AnError, http.StatusInternalServerError},
		{"active", http.MethodGet, "/api/cron/active", "", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(&stubCronUsecase{err: tt.err}).
				ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestGetJobs_EnabledFilter(t *testing.T) {
	tests := []struct {
		query string
		want  *bool
	}{
		{"", nil},
		{"?enabled=true", boolPtr(true)},
		{"?enabled=false", boolPtr(false)},
		{"?enabled=maybe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			uc := &stubCronUsecase{}
			w := httptest.NewRecorder()
			newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron"+tt.query, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, uc.enabled)
			var resp map[string][]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotNil(t, resp["jobs"])
		})
	}
}

func boolPtr(b bool) *bool { return &b }
