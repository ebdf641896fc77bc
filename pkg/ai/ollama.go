package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaService implements TextGenerator using an Ollama local LLM
type OllamaService struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
	client     *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return NewOllamaServiceWithGetters(
		func() string { return baseURL },
		func() string { return model },
	)
}

// NewOllamaServiceWithGetters creates a new Ollama service whose endpoint can change at runtime
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
		client:     &http.Client{},
	}
}

func (o *OllamaService) Name() string { return string(ProviderOllama) }

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Complete implements TextGenerator via /api/generate
func (o *OllamaService) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (Completion, error) {
	payload := map[string]interface{}{
		"model":   o.getModel(),
		"prompt":  prompt,
		"stream":  false,
		"options": ollamaOptions(cfg),
	}

	var result ollamaGenerateResponse
	if err := o.post(ctx, "/api/generate", payload, &result); err != nil {
		return Completion{}, err
	}

	text := strings.TrimSpace(result.Response)
	if text == "" {
		return Completion{}, ErrEmptyResponse
	}

	return Completion{
		Text: text,
		Usage: TokenUsage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
	}, nil
}

// Chat implements TextGenerator via /api/chat
func (o *OllamaService) Chat(ctx context.Context, message string, history []ChatMessage) (string, error) {
	messages := make([]map[string]string, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, map[string]string{"role": string(normalizeRole(m.Role)), "content": m.Content})
	}
	messages = append(messages, map[string]string{"role": string(RoleUser), "content": message})

	payload := map[string]interface{}{
		"model":    o.getModel(),
		"messages": messages,
		"stream":   false,
		"options":  ollamaOptions(DefaultChatConfig),
	}

	var result ollamaChatResponse
	if err := o.post(ctx, "/api/chat", payload, &result); err != nil {
		return "", err
	}

	text := strings.TrimSpace(result.Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Ping checks that the Ollama server is reachable
func (o *OllamaService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.getBaseURL()+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama API error (%d)", resp.StatusCode)
	}
	return nil
}

func (o *OllamaService) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.getBaseURL()+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func ollamaOptions(cfg GenerationConfig) map[string]interface{} {
	opts := map[string]interface{}{"temperature": cfg.Temperature}
	if cfg.MaxOutputTokens > 0 {
		opts["num_predict"] = cfg.MaxOutputTokens
	}
	return opts
}

func normalizeRole(r Role) Role {
	switch strings.ToLower(string(r)) {
	case "assistant", "model", "ai":
		return RoleAssistant
	case "system":
		return RoleSystem
	default:
		return RoleUser
	}
}
