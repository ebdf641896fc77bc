package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"office-agent/internal/agent/domain"
	"office-agent/pkg/ai"

	"github.com/rs/zerolog/log"
)

// ErrNoProvider is returned when no AI backend could be configured
var ErrNoProvider = errors.New("no AI provider configured")

// conversationErrorReply answers a chat turn the provider failed or refused
const conversationErrorReply = "Sorry, I encountered an error processing your request. Please try again."

// AgentUsecase defines the chat entry point of the office agent
type AgentUsecase interface {
	// ProcessMessage resolves the message to one action, runs it and phrases the outcome.
	// userID may be empty for anonymous callers.
	ProcessMessage(ctx context.Context, userID, message string, history []ai.ChatMessage) (string, error)
	// ProcessTask answers a free-form task description, with optional context
	ProcessTask(ctx context.Context, description string, taskContext map[string]interface{}) (string, error)
	AnalyzeText(ctx context.Context, text, analysisType string) (string, error)
	// Generate runs a raw prompt at temperature 0.6
	Generate(ctx context.Context, prompt string) (string, error)
}

type agentUsecase struct {
	generator ai.TextGenerator
	resolver  *Resolver
	executor  *Executor
	timeout   time.Duration
}

// NewAgentUsecase creates a new AgentUsecase
func NewAgentUsecase(generator ai.TextGenerator, resolver *Resolver, executor *Executor, timeout time.Duration) AgentUsecase {
	return &agentUsecase{
		generator: generator,
		resolver:  resolver,
		executor:  executor,
		timeout:   timeout,
	}
}

func (u *agentUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, u.timeout)
}

func (u *agentUsecase) ProcessMessage(ctx context.Context, userID, message string, history []ai.ChatMessage) (string, error) {
	if u.generator == nil {
		return "", ErrNoProvider
	}
	action := u.resolver.Resolve(ctx, message, history)

	if action.Tool == domain.ToolConversation {
		chatCtx, cancel := u.withTimeout(ctx)
		defer cancel()
		reply, err := u.generator.Chat(chatCtx, message, history)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Int("history", len(history)).Msg("[Agent] Conversation turn failed")
			return conversationErrorReply, nil
		}
		if strings.TrimSpace(reply) == "" {
			log.Warn().Str("user_id", userID).Msg("[Agent] Provider returned an empty conversation reply")
			return conversationErrorReply, nil
		}
		return reply, nil
	}

	outcome := u.executor.Execute(ctx, action, userID)
	log.Info().Str("user_id", userID).Str("tool", action.Tool).Msg("[Agent] Action executed")

	chatCtx, cancel := u.withTimeout(ctx)
	defer cancel()
	phrased, err := u.generator.Chat(chatCtx, phraseBackPrompt(action.Tool, action.Parameters, outcome), nil)
	if err != nil {
		log.Warn().Err(err).Str("tool", action.Tool).Msg("[Agent] Could not phrase outcome, returning it raw")
		return outcome, nil
	}
	if strings.TrimSpace(phrased) == "" {
		return outcome, nil
	}
	return phrased, nil
}
