package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

const researcherTemperature = 0.7

// Researcher analyzes the requested topic and produces the findings every
// later Designer pass is grounded on.
type Researcher struct {
	llm    Completer
	logger *slog.Logger
}

var _ generation.Stage = (*Researcher)(nil)

// NewResearcher creates the Researcher stage.
func NewResearcher(llm Completer, logger *slog.Logger) *Researcher {
	return &Researcher{
		llm:    llm,
		logger: logger.With(slog.String("stage", string(generation.RoleResearcher))),
	}
}

// Role implements generation.Stage.
func (r *Researcher) Role() generation.Role { return generation.RoleResearcher }

// Run implements generation.Stage.
func (r *Researcher) Run(ctx context.Context, in generation.Input) (*generation.Output, error) {
	prompt, err := renderPrompt("researcher.tmpl", map[string]any{
		"Topic":           in.Request.Topic,
		"Context":         in.Request.Context,
		"ExperienceLevel": in.Request.ExperienceLevel,
	})
	if err != nil {
		return nil, err
	}

	raw, err := r.llm.GenerateJSON(ctx, prompt, researcherTemperature)
	if err != nil {
		return nil, err
	}

	var findings domain.ResearchFindings
	if err := json.Unmarshal(raw, &findings); err != nil {
		return nil, fmt.Errorf("%w: malformed research findings: %v", generation.ErrInvalidResponse, err)
	}

	if findings.Summary == "" {
		return nil, fmt.Errorf("%w: research findings missing summary", generation.ErrInvalidResponse)
	}
	if len(findings.CoreConcepts) == 0 {
		return nil, fmt.Errorf("%w: research findings contain no core concepts", generation.ErrInvalidResponse)
	}

	r.logger.InfoContext(ctx, "research completed",
		slog.Int("core_concepts", len(findings.CoreConcepts)),
		slog.Int("suggested_tasks", findings.Scope.SuggestedTasks),
		slog.String("confidence", findings.Confidence))

	return &generation.Output{Findings: &findings}, nil
}
