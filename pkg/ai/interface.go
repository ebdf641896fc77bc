package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers with no text,
// typically because a safety filter blocked the candidate.
var ErrEmptyResponse = errors.New("ai provider returned an empty response")

// Role is the speaker of a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one turn of conversation history
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationConfig tunes a single completion
type GenerationConfig struct {
	Temperature     float32
	MaxOutputTokens int
}

// TokenUsage is reported by providers that expose it; zero otherwise
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of a one-shot prompt
type Completion struct {
	Text  string
	Usage TokenUsage
}

// TextGenerator is the interface every AI provider implements.
// Implement this interface to add new providers (Gemini, Ollama, OpenAI, etc.)
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, cfg GenerationConfig) (Completion, error)
	Chat(ctx context.Context, message string, history []ChatMessage) (string, error)
}

// Named is implemented by providers that can report which backend served them
type Named interface {
	Name() string
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// DefaultChatConfig is used for free-form chat turns
var DefaultChatConfig = GenerationConfig{Temperature: 0.7, MaxOutputTokens: 1000}
