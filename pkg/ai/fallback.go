package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"office-agent/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// FallbackService implements provider routing with fallback.
// Providers are tried in order; a failing provider hands over to the next one.
type FallbackService struct {
	providers []TextGenerator
}

// NewFallbackService creates a new fallback service over the given providers (nil entries are skipped)
func NewFallbackService(providers ...TextGenerator) *FallbackService {
	f := &FallbackService{}
	for _, p := range providers {
		if p != nil {
			f.providers = append(f.providers, p)
		}
	}
	return f
}

func (f *FallbackService) Name() string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, providerName(p))
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func describe(err error) string {
	switch {
	case isQuotaError(err):
		return "quota exhausted"
	case isConnectionError(err):
		return "connection failed"
	case errors.Is(err, ErrEmptyResponse):
		return "empty response"
	default:
		return "error"
	}
}

// Complete tries each provider in order until one succeeds
func (f *FallbackService) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (Completion, error) {
	var lastErr error
	for i, p := range f.providers {
		start := time.Now()
		result, err := p.Complete(ctx, prompt, cfg)
		metrics.ObserveAI(providerName(p), start, err)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Completion{}, err
		}
		if i < len(f.providers)-1 {
			log.Warn().Err(err).Str("provider", providerName(p)).Msgf("[AI] %s, falling back to %s", describe(err), providerName(f.providers[i+1]))
		}
	}
	if lastErr == nil {
		return Completion{}, fmt.Errorf("no AI provider available")
	}
	return Completion{}, lastErr
}

// Chat tries each provider in order until one succeeds
func (f *FallbackService) Chat(ctx context.Context, message string, history []ChatMessage) (string, error) {
	var lastErr error
	for i, p := range f.providers {
		start := time.Now()
		result, err := p.Chat(ctx, message, history)
		metrics.ObserveAI(providerName(p), start, err)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", err
		}
		if i < len(f.providers)-1 {
			log.Warn().Err(err).Str("provider", providerName(p)).Msgf("[AI] %s, falling back to %s", describe(err), providerName(f.providers[i+1]))
		}
	}
	if lastErr == nil {
		return "", fmt.Errorf("no AI provider available")
	}
	return "", lastErr
}

func providerName(p TextGenerator) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
