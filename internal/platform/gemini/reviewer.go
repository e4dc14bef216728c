package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

const reviewerTemperature = 0.6

// Reviewer validates a draft's technical accuracy and pedagogy and produces
// the structured critique the next Designer pass repairs against.
type Reviewer struct {
	llm    Completer
	logger *slog.Logger
}

var _ generation.Stage = (*Reviewer)(nil)

// NewReviewer creates the Reviewer stage.
func NewReviewer(llm Completer, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		llm:    llm,
		logger: logger.With(slog.String("stage", string(generation.RoleReviewer))),
	}
}

// Role implements generation.Stage.
func (r *Reviewer) Role() generation.Role { return generation.RoleReviewer }

// Run implements generation.Stage.
func (r *Reviewer) Run(ctx context.Context, in generation.Input) (*generation.Output, error) {
	if in.Findings == nil || in.Draft == nil {
		return nil, fmt.Errorf("%w: reviewer requires findings and a draft", generation.ErrInvalidConfig)
	}

	prompt, err := renderPrompt("reviewer.tmpl", map[string]any{
		"Findings": indentJSON(in.Findings),
		"Draft":    indentJSON(in.Draft),
	})
	if err != nil {
		return nil, err
	}

	raw, err := r.llm.GenerateJSON(ctx, prompt, reviewerTemperature)
	if err != nil {
		return nil, err
	}

	var critique domain.Critique
	if err := json.Unmarshal(raw, &critique); err != nil {
		return nil, fmt.Errorf("%w: malformed critique: %v", generation.ErrInvalidResponse, err)
	}

	if len(critique.Scores) == 0 {
		return nil, fmt.Errorf("%w: critique carries no category scores", generation.ErrInvalidResponse)
	}

	r.logger.InfoContext(ctx, "review completed",
		slog.Bool("pass", critique.Pass),
		slog.Float64("confidence", critique.Confidence),
		slog.Int("issues", len(critique.Issues)),
		slog.Int("high_severity", critique.HighSeverityCount()))

	return &generation.Output{Critique: &critique}, nil
}
