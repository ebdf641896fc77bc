package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"office-agent/internal/inbox/domain"
	"office-agent/internal/inbox/usecase"
	maildomain "office-agent/internal/mail/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInboxUsecase struct {
	usecase.InboxUsecase
	err       error
	lastPatch usecase.DraftPatch
	lastQuery string
	filter    domain.EmailFilter
}

func (s *stubInboxUsecase) ScanInbox(ctx context.Context, userID string) (*usecase.ScanResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.ScanResult{Success: true, EmailsFound: 3, EmailsNew: 2}, nil
}

func (s *stubInboxUsecase) SendApprovedDraft(ctx context.Context, userID, draftID string) (*domain.AIDraft, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AIDraft{ID: draftID, UserID: userID, Status: domain.DraftSent, SentMessageID: "<sent@x>"}, nil
}

func (s *stubInboxUsecase) UpdateDraft(ctx context.Context, userID, draftID string, patch usecase.DraftPatch) (*domain.AIDraft, error) {
	s.lastPatch = patch
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AIDraft{ID: draftID, Status: *patch.Status}, nil
}

func (s *stubInboxUsecase) ListEmails(userID string, filter domain.EmailFilter) ([]*domain.InboxEmail, error) {
	s.filter = filter
	return []*domain.InboxEmail{{ID: "e1"}}, s.err
}

func (s *stubInboxUsecase) SearchEmails(userID, query string, limit int) ([]*usecase.SearchResult, error) {
	s.lastQuery = query
	return []*usecase.SearchResult{{Email: &domain.InboxEmail{ID: "e1"}, Score: 150}}, s.err
}

func newRouter(uc usecase.InboxUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) { c.Set("userID", "u1"); c.Next() })
	NewInboxHandler(uc).RegisterRoutes(api)
	return r
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrDraftNotFound, http.StatusNotFound},
		{domain.ErrEmailNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: bad", domain.ErrInvalidRequest), http.StatusBadRequest},
		{domain.ErrDraftAlreadySent, http.StatusConflict},
		{domain.ErrDraftRejected, http.StatusConflict},
		{fmt.Errorf("%w: sent -> edited", domain.ErrInvalidTransition), http.StatusConflict},
		{domain.ErrNoImapConfig, http.StatusPreconditionFailed},
		{maildomain.ErrNoEmailConfig, http.StatusPreconditionFailed},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestScan(t *testing.T) {
	r := newRouter(&stubInboxUsecase{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/email-inbox/scan", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp usecase.ScanResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.EmailsNew)
}

func TestScan_NoImapConfig(t *testing.T) {
	r := newRouter(&stubInboxUsecase{err: domain.ErrNoImapConfig})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/email-inbox/scan", nil))
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestSendDraft(t *testing.T) {
	r := newRouter(&stubInboxUsecase{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/email-inbox/drafts/d1/send", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "<sent@x>", resp["message_id"])
}

func TestSendDraft_AlreadySent(t *testing.T) {
	r := newRouter(&stubInboxUsecase{err: domain.ErrDraftAlreadySent})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/email-inbox/drafts/d1/send", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateDraft_BindsPatch(t *testing.T) {
	uc := &stubInboxUsecase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	body := `{"status":"approved"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/email-inbox/drafts/d1", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc.lastPatch.Status)
	assert.Equal(t, domain.DraftApproved, *uc.lastPatch.Status)
	assert.Nil(t, uc.lastPatch.EditedBody)
}

func TestListEmails_ParsesFilter(t *testing.T) {
	uc := &stubInboxUsecase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/email-inbox/emails?unread=true&priority=urgent&archived=true&limit=10", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, uc.filter.UnreadOnly)
	assert.Equal(t, domain.PriorityUrgent, uc.filter.Priority)
	require.NotNil(t, uc.filter.Archived)
	assert.True(t, *uc.filter.Archived)
	assert.Equal(t, 10, uc.filter.Limit)
}

func TestSearch(t *testing.T) {
	uc := &stubInboxUsecase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/email-inbox/search?q=invoce", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invoce", uc.lastQuery)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
