package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (Completion, error) {
	s.calls++
	if s.err != nil {
		return Completion{}, s.err
	}
	return Completion{Text: s.text}, nil
}

func (s *stubGenerator) Chat(ctx context.Context, message string, history []ChatMessage) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestFallbackService_UsesFirstHealthyProvider(t *testing.T) {
	first := &stubGenerator{name: "gemini", err: errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")}
	second := &stubGenerator{name: "ollama", text: "hello"}

	svc := NewFallbackService(first, nil, second)

	res, err := svc.Complete(context.Background(), "hi", GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	text, err := svc.Chat(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestFallbackService_StopsAtFirstSuccess(t *testing.T) {
	first := &stubGenerator{name: "gemini", text: "from gemini"}
	second := &stubGenerator{name: "ollama", text: "from ollama"}

	res, err := NewFallbackService(first, second).Complete(context.Background(), "hi", GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, "from gemini", res.Text)
	assert.Equal(t, 0, second.calls)
}

func TestFallbackService_AllFail(t *testing.T) {
	first := &stubGenerator{name: "gemini", err: errors.New("dial tcp: connection refused")}
	second := &stubGenerator{name: "ollama", err: ErrEmptyResponse}

	_, err := NewFallbackService(first, second).Complete(context.Background(), "hi", GenerationConfig{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = NewFallbackService().Chat(context.Background(), "hi", nil)
	assert.Error(t, err)
}

func TestFallbackService_Name(t *testing.T) {
	svc := NewFallbackService(&stubGenerator{name: "gemini"}, &stubGenerator{name: "ollama"})
	assert.Equal(t, "fallback(gemini,ollama)", svc.Name())
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isQuotaError(errors.New("429 Too Many Requests")))
	assert.True(t, isConnectionError(errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")))
	assert.False(t, isQuotaError(nil))
	assert.False(t, isConnectionError(errors.New("invalid api key")))
}

func TestOllamaService_CompleteAndChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body["model"])

		switch r.URL.Path {
		case "/api/generate":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"response":          " {\"ok\":true} ",
				"done":              true,
				"prompt_eval_count": 7,
				"eval_count":        3,
			})
		case "/api/chat":
			msgs := body["messages"].([]interface{})
			assert.Len(t, msgs, 2)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"message": map[string]string{"role": "assistant", "content": "hi there"},
				"done":    true,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3")

	res, err := svc.Complete(context.Background(), "prompt", GenerationConfig{Temperature: 0.2, MaxOutputTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, res.Text)
	assert.Equal(t, 10, res.Usage.TotalTokens)

	text, err := svc.Chat(context.Background(), "hello", []ChatMessage{{Role: RoleAssistant, Content: "earlier"}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestOllamaService_EmptyAndErrorResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/chat" {
			http.Error(w, "model not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": "   ", "done": true})
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3")

	_, err := svc.Complete(context.Background(), "prompt", GenerationConfig{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = svc.Chat(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNewTextGenerator(t *testing.T) {
	_, err := NewTextGenerator(context.Background(), Config{Provider: ProviderGemini})
	assert.Error(t, err)

	_, err = NewTextGenerator(context.Background(), Config{Provider: ProviderOpenAI})
	assert.Error(t, err)

	gen, err := NewTextGenerator(context.Background(), Config{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.IsType(t, &OllamaService{}, gen)

	gen, err = NewTextGenerator(context.Background(), Config{Provider: ProviderAuto, OpenAIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "fallback(openai,ollama)", gen.(Named).Name())
}
