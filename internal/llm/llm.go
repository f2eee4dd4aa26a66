// Package llm wraps the text generation providers behind a single call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/logger"
)

// ErrEmptyResponse is returned when the provider answers without text.
var ErrEmptyResponse = errors.New("llm returned empty response")

// Generator turns a prompt into a reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New creates the generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (Generator, error) {
	if log == nil {
		log = logger.Discard()
	}
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg, log)
	case "openai":
		return NewOpenAI(cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
