package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrBlocked is returned when Gemini refuses to produce a candidate
var ErrBlocked = errors.New("gemini response blocked or empty")

type GeminiService struct {
	client *genai.Client
	model  string
}

// Options controls a single generation
type Options struct {
	Temperature     float32
	MaxOutputTokens int
}

// Result is the generated text with token accounting
type Result struct {
	Text         string
	PromptTokens int
	OutputTokens int
	TotalTokens  int
}

// Turn is one entry of chat history. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{client: client, model: model}, nil
}

func (g *GeminiService) Close() error {
	return g.client.Close()
}

func (g *GeminiService) generativeModel(opts Options) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxOutputTokens))
	}
	return m
}

// Generate runs a single prompt
func (g *GeminiService) Generate(ctx context.Context, prompt string, opts Options) (Result, error) {
	resp, err := g.generativeModel(opts).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return Result{}, ErrBlocked
		}
		return Result{}, fmt.Errorf("gemini API error: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return Result{}, ErrBlocked
	}

	result := Result{Text: text}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

// Chat continues a conversation with the given history
func (g *GeminiService) Chat(ctx context.Context, message string, history []Turn, opts Options) (string, error) {
	cs := g.generativeModel(opts).StartChat()
	for _, turn := range history {
		role := "user"
		if turn.Role == "model" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", ErrBlocked
		}
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrBlocked
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}
