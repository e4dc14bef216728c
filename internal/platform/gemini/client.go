package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/pathforge/pathforge-api/internal/config"
	"github.com/pathforge/pathforge-api/internal/generation"
)

// Completer is the LLM call surface the stages depend on. It exists so stage
// logic can be tested with canned completions instead of a live API.
type Completer interface {
	// GenerateJSON sends the prompt and returns the response body reduced to
	// a single JSON document.
	GenerateJSON(ctx context.Context, prompt string, temperature float32) ([]byte, error)
}

// Client wraps the Gemini API client with the error classification the
// orchestrator's retry logic depends on.
type Client struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

var _ Completer = (*Client)(nil)

// NewClient creates a Gemini-backed Completer from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Client{
		logger: logger.With(slog.String("component", "gemini_client")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// GenerateJSON sends one prompt and returns the extracted JSON payload.
//
// Error classification: API transport failures map to ErrTransient, safety
// refusals to ErrContentBlocked, and empty or non-JSON responses to
// ErrInvalidResponse. Callers decide the retry policy from those sentinels.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, temperature float32) ([]byte, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", generation.ErrInvalidConfig)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(temperature),
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.String("model", c.model),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", generation.ErrTransient, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: response blocked by safety filters", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	payload, err := extractJSON(text)
	if err != nil {
		c.logger.ErrorContext(ctx, "response carried no JSON document",
			slog.Int("response_length", len(text)))
		return nil, err
	}

	c.logger.DebugContext(ctx, "Gemini API call succeeded",
		slog.String("model", c.model),
		slog.Int("payload_length", len(payload)))

	return []byte(payload), nil
}
