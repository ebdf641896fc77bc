package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"office-agent/internal/agent/domain"
	"office-agent/pkg/ai"

	"github.com/rs/zerolog/log"
)

var generateConfig = ai.GenerationConfig{Temperature: 0.6, MaxOutputTokens: 1000}

func (u *agentUsecase) ProcessTask(ctx context.Context, description string, taskContext map[string]interface{}) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("%w: task description is required", domain.ErrInvalidRequest)
	}
	prompt := description
	if len(taskContext) > 0 {
		raw, err := json.Marshal(taskContext)
		if err != nil {
			return "", fmt.Errorf("%w: context is not serialisable", domain.ErrInvalidRequest)
		}
		prompt = fmt.Sprintf("%s\n\nContext: %s", description, raw)
	}
	return u.complete(ctx, "task", prompt, ai.DefaultChatConfig)
}

func (u *agentUsecase) AnalyzeText(ctx context.Context, text, analysisType string) (string, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(analysisType) == "" {
		return "", fmt.Errorf("%w: text and analysis type are required", domain.ErrInvalidRequest)
	}
	prompt := fmt.Sprintf("Analyze the following text for %s:\n\n%s", analysisType, text)
	return u.complete(ctx, "analyze", prompt, ai.DefaultChatConfig)
}

func (u *agentUsecase) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	return u.complete(ctx, "generate", prompt, generateConfig)
}

// complete runs a one-shot prompt; a blank answer is reported as ai.ErrEmptyResponse
func (u *agentUsecase) complete(ctx context.Context, kind, prompt string, cfg ai.GenerationConfig) (string, error) {
	if u.generator == nil {
		return "", ErrNoProvider
	}
	callCtx, cancel := u.withTimeout(ctx)
	defer cancel()

	res, err := u.generator.Complete(callCtx, prompt, cfg)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Int("prompt_len", len(prompt)).Msg("[Agent] Completion failed")
		return "", err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", ai.ErrEmptyResponse
	}
	log.Info().Str("kind", kind).Int("tokens", res.Usage.TotalTokens).Msg("[Agent] Completion generated")
	return res.Text, nil
}
