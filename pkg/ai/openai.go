package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIService implements TextGenerator using the OpenAI chat completions API
// (or any compatible endpoint via OPENAI_BASE_URL)
type OpenAIService struct {
	client *openai.Client
	model  string
}

// NewOpenAIService creates a new OpenAI-backed generator
func NewOpenAIService(apiKey, model, baseURL string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (s *OpenAIService) Name() string { return string(ProviderOpenAI) }

// Complete implements TextGenerator
func (s *OpenAIService) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (Completion, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxOutputTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Completion{}, ErrEmptyResponse
	}

	return Completion{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Chat implements TextGenerator
func (s *OpenAIService) Chat(ctx context.Context, message string, history []ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		switch normalizeRole(m.Role) {
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: DefaultChatConfig.Temperature,
		MaxTokens:   DefaultChatConfig.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
