package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/techretail/retailbot/internal/config"
)

// OpenAI generates replies with any OpenAI compatible chat completions
// endpoint, such as a local llama.cpp server.
type OpenAI struct {
	client      openai.Client
	log         *slog.Logger
	model       string
	temperature float64
}

// NewOpenAI creates an OpenAI compatible generator.
func NewOpenAI(cfg config.LLMConfig, log *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("openai provider needs an api key or a base url")
	}

	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		// local servers ignore the key but the SDK requires one
		opts = append(opts, option.WithAPIKey("sk-no-key-required"))
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized successfully", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &OpenAI{
		client:      openai.NewClient(opts...),
		log:         logger,
		model:       cfg.Model,
		temperature: float64(cfg.Temperature),
	}, nil
}

// Generate sends the prompt as a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:       shared.ChatModel(o.model),
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		o.log.ErrorContext(ctx, "Chat completion failed", "error", err)
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, resp.Choices[0].FinishReason)
	}
	return text, nil
}
