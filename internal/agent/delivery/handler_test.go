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

	"office-agent/internal/agent/domain"
	"office-agent/internal/agent/usecase"
	"office-agent/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	userID  string
	history []ai.ChatMessage
	context map[string]interface{}
	err     error
}

func (s *stubAgent) ProcessMessage(_ context.Context, userID, message string, history []ai.ChatMessage) (string, error) {
	s.userID = userID
	s.history = history
	return "echo: " + message, s.err
}

func (s *stubAgent) ProcessTask(_ context.Context, description string, taskContext map[string]interface{}) (string, error) {
	s.context = taskContext
	return "done: " + description, s.err
}

func (s *stubAgent) AnalyzeText(_ context.Context, text, analysisType string) (string, error) {
	return analysisType + ": " + text, s.err
}

func (s *stubAgent) Generate(_ context.Context, prompt string) (string, error) {
	return "generated: " + prompt, s.err
}

func newRouter(agent *stubAgent, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	NewAgentHandler(agent).RegisterRoutes(api)
	NewAIHandler(agent).RegisterRoutes(api)
	return r
}

func TestChat(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		userID string
	}{
		{"authenticated", "/api/agent/chat", "u1"},
		{"anonymous", "/api/agent/chat", ""},
		{"legacy alias", "/api/chat", "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &stubAgent{}
			w := httptest.NewRecorder()
			body := `{"message":"hi","history":[{"role":"user","content":"earlier"}]}`
			newRouter(agent, tt.userID).ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(body)))

			require.Equal(t, http.StatusOK, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "echo: hi", resp["content"])
			assert.Equal(t, tt.userID, agent.userID)
			require.Len(t, agent.history, 1)
			assert.Equal(t, ai.RoleUser, agent.history[0].Role)
		})
	}
}

func TestChat_Errors(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&stubAgent{}, "u1").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/agent/chat", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	newRouter(&stubAgent{err: errors.New("model down")}, "u1").
		ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/agent/chat", strings.NewReader(`{"message":"hi"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAssistRoutes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		err      error
		wantCode int
		wantKey  string
		wantVal  string
	}{
		{"task", "/api/agent/task", `{"description":"plan","context":{"k":"v"}}`, nil, http.StatusOK, "result", "done: plan"},
		{"task missing description", "/api/agent/task", `{}`, nil, http.StatusBadRequest, "", ""},
		{"analyze", "/api/agent/analyze", `{"text":"hi","analysis_type":"tone"}`, nil, http.StatusOK, "analysis", "tone: hi"},
		{"analyze missing type", "/api/agent/analyze", `{"text":"hi"}`, nil, http.StatusBadRequest, "", ""},
		{"generate", "/api/ai/generate", `{"prompt":"p"}`, nil, http.StatusOK, "content", "generated: p"},
		{"generate invalid", "/api/ai/generate", `{"prompt":"p"}`, fmt.Errorf("%w: nope", domain.ErrInvalidRequest), http.StatusBadRequest, "", ""},
		{"generate no provider", "/api/ai/generate", `{"prompt":"p"}`, usecase.ErrNoProvider, http.StatusServiceUnavailable, "", ""},
		{"generate failure", "/api/ai/generate", `{"prompt":"p"}`, ai.ErrEmptyResponse, http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(&stubAgent{err: tt.err}, "u1").
				ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantKey == "" {
				return
			}
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantVal, resp[tt.wantKey])
		})
	}
}
