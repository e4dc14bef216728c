package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

const gatekeeperTemperature = 0.4

// Gatekeeper scores a draft's adherence to the curation philosophy. Its
// verdict is the only source of quality scores in the workflow.
type Gatekeeper struct {
	llm           Completer
	maxIterations int
	logger        *slog.Logger
}

var _ generation.Stage = (*Gatekeeper)(nil)

// NewGatekeeper creates the Gatekeeper stage. maxIterations is only used as
// prompt context so the model knows how much budget remains.
func NewGatekeeper(llm Completer, maxIterations int, logger *slog.Logger) *Gatekeeper {
	return &Gatekeeper{
		llm:           llm,
		maxIterations: maxIterations,
		logger:        logger.With(slog.String("stage", string(generation.RoleGatekeeper))),
	}
}

// Role implements generation.Stage.
func (g *Gatekeeper) Role() generation.Role { return generation.RoleGatekeeper }

// Run implements generation.Stage.
func (g *Gatekeeper) Run(ctx context.Context, in generation.Input) (*generation.Output, error) {
	if in.Draft == nil || in.Critique == nil {
		return nil, fmt.Errorf("%w: gatekeeper requires a draft and its critique", generation.ErrInvalidConfig)
	}

	prompt, err := renderPrompt("gatekeeper.tmpl", map[string]any{
		"Draft":       indentJSON(in.Draft),
		"Critique":    indentJSON(in.Critique),
		"Attempt":     in.Iteration + 1,
		"MaxAttempts": g.maxIterations,
	})
	if err != nil {
		return nil, err
	}

	raw, err := g.llm.GenerateJSON(ctx, prompt, gatekeeperTemperature)
	if err != nil {
		return nil, err
	}

	var verdict domain.QualityVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return nil, fmt.Errorf("%w: malformed quality verdict: %v", generation.ErrInvalidResponse, err)
	}

	// The overall score is recomputed from the category scores rather than
	// trusted from the model's own arithmetic.
	if len(verdict.Scores) > 0 {
		sum := 0.0
		for _, s := range verdict.Scores {
			sum += s
		}
		verdict.Score = math.Round(sum/float64(len(verdict.Scores))*100) / 100
	}

	if err := verdict.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	g.logger.InfoContext(ctx, "quality verdict produced",
		slog.Bool("approved", verdict.Approved),
		slog.Float64("score", verdict.Score),
		slog.Int("violations", len(verdict.Violations)))

	return &generation.Output{Verdict: &verdict}, nil
}
