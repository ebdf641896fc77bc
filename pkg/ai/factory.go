package ai

import (
	"context"
	"errors"
	"fmt"

	"office-agent/pkg/gemini"
)

// Config holds AI provider configuration. The Ollama endpoint is read through
// getters so the settings API can change it at runtime.
type Config struct {
	Provider ProviderType // "gemini", "openai", "ollama" or "auto"

	GeminiAPIKey string
	GeminiModel  string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// geminiProvider adapts pkg/gemini to TextGenerator
type geminiProvider struct {
	svc *gemini.GeminiService
}

func (g *geminiProvider) Name() string { return string(ProviderGemini) }

func (g *geminiProvider) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (Completion, error) {
	res, err := g.svc.Generate(ctx, prompt, gemini.Options{Temperature: cfg.Temperature, MaxOutputTokens: cfg.MaxOutputTokens})
	if errors.Is(err, gemini.ErrBlocked) {
		return Completion{}, ErrEmptyResponse
	}
	if err != nil {
		return Completion{}, err
	}
	return Completion{
		Text: res.Text,
		Usage: TokenUsage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.OutputTokens,
			TotalTokens:      res.TotalTokens,
		},
	}, nil
}

func (g *geminiProvider) Chat(ctx context.Context, message string, history []ChatMessage) (string, error) {
	turns := make([]gemini.Turn, 0, len(history))
	for _, m := range history {
		role := "user"
		if normalizeRole(m.Role) == RoleAssistant {
			role = "model"
		}
		turns = append(turns, gemini.Turn{Role: role, Text: m.Content})
	}
	text, err := g.svc.Chat(ctx, message, turns, gemini.Options{
		Temperature:     DefaultChatConfig.Temperature,
		MaxOutputTokens: DefaultChatConfig.MaxOutputTokens,
	})
	if errors.Is(err, gemini.ErrBlocked) {
		return "", ErrEmptyResponse
	}
	return text, err
}

func (c Config) ollama() *OllamaService {
	if c.GetOllamaBaseURL != nil && c.GetOllamaModel != nil {
		return NewOllamaServiceWithGetters(c.GetOllamaBaseURL, c.GetOllamaModel)
	}
	return NewOllamaService("", "")
}

// NewTextGenerator creates a TextGenerator based on the config.
// This is the factory function - switch AI provider by changing config.Provider.
func NewTextGenerator(ctx context.Context, cfg Config) (TextGenerator, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		svc, err := gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return &geminiProvider{svc: svc}, nil

	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil

	case ProviderOllama:
		return cfg.ollama(), nil

	default:
		// Auto: every configured hosted provider first, local Ollama last
		var providers []TextGenerator
		if cfg.GeminiAPIKey != "" {
			svc, err := gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return nil, err
			}
			providers = append(providers, &geminiProvider{svc: svc})
		}
		if cfg.OpenAIKey != "" {
			providers = append(providers, NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
		}
		providers = append(providers, cfg.ollama())
		return NewFallbackService(providers...), nil
	}
}
