package usecase

import (
	"context"
	"encoding/json"
	"time"

	"office-agent/internal/agent/domain"
	"office-agent/pkg/ai"

	"github.com/rs/zerolog/log"
)

var intentConfig = ai.GenerationConfig{Temperature: 0.2, MaxOutputTokens: 1024}

// Resolver turns a user message into exactly one AgentAction
type Resolver struct {
	generator ai.TextGenerator
	timeout   time.Duration
}

// NewResolver creates a Resolver. timeout bounds the single model call (0 disables it).
func NewResolver(generator ai.TextGenerator, timeout time.Duration) *Resolver {
	return &Resolver{generator: generator, timeout: timeout}
}

// intentReply mirrors the JSON the model is asked for; pointers detect missing keys
type intentReply struct {
	Tool       *string         `json:"tool"`
	Reasoning  *string         `json:"reasoning"`
	Parameters json.RawMessage `json:"parameters"`
}

// Resolve never fails: any problem with the model or its reply yields the
// conversation fallback
func (r *Resolver) Resolve(ctx context.Context, message string, history []ai.ChatMessage) domain.AgentAction {
	if r.generator == nil {
		return domain.ConversationFallback()
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	completion, err := r.generator.Complete(ctx, intentPrompt(message), intentConfig)
	if err != nil {
		log.Warn().Err(err).Msg("[Agent] Intent analysis failed")
		return domain.ConversationFallback()
	}

	action, ok := parseIntent(completion.Text)
	if !ok {
		return domain.ConversationFallback()
	}
	log.Debug().Str("tool", action.Tool).Str("reasoning", action.Reasoning).Msg("[Agent] Intent resolved")
	return action
}

func parseIntent(text string) (domain.AgentAction, bool) {
	var reply intentReply
	if err := ai.DecodeJSON(text, &reply); err != nil {
		log.Warn().Err(err).Msg("[Agent] Could not parse intent reply")
		return domain.AgentAction{}, false
	}
	if reply.Tool == nil || *reply.Tool == "" || reply.Reasoning == nil || len(reply.Parameters) == 0 {
		log.Warn().Msg("[Agent] Intent reply is missing tool, reasoning or parameters")
		return domain.AgentAction{}, false
	}

	call, err := domain.DecodeCall(*reply.Tool, reply.Parameters)
	if err != nil {
		log.Warn().Err(err).Msg("[Agent] Could not decode tool parameters")
		return domain.AgentAction{}, false
	}

	return domain.AgentAction{
		Tool:       *reply.Tool,
		Reasoning:  *reply.Reasoning,
		Parameters: reply.Parameters,
		Call:       call,
	}, true
}
