package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

const designerTemperature = 0.75

// Designer produces one complete curriculum draft from the research findings.
// On iterations past the first it receives the previous cycle's critique and
// verdict and must repair the flagged issues in a full replacement draft.
type Designer struct {
	llm    Completer
	logger *slog.Logger
}

var _ generation.Stage = (*Designer)(nil)

// NewDesigner creates the Designer stage.
func NewDesigner(llm Completer, logger *slog.Logger) *Designer {
	return &Designer{
		llm:    llm,
		logger: logger.With(slog.String("stage", string(generation.RoleDesigner))),
	}
}

// Role implements generation.Stage.
func (d *Designer) Role() generation.Role { return generation.RoleDesigner }

// Run implements generation.Stage.
func (d *Designer) Run(ctx context.Context, in generation.Input) (*generation.Output, error) {
	if in.Findings == nil {
		return nil, fmt.Errorf("%w: designer requires research findings", generation.ErrInvalidConfig)
	}

	prompt, err := renderPrompt("designer.tmpl", map[string]any{
		"Topic":           in.Request.Topic,
		"ExperienceLevel": in.Request.ExperienceLevel,
		"Findings":        indentJSON(in.Findings),
		"Feedback":        formatFeedback(in.Critique, in.Verdict),
		"Attempt":         in.Iteration + 1,
	})
	if err != nil {
		return nil, err
	}

	raw, err := d.llm.GenerateJSON(ctx, prompt, designerTemperature)
	if err != nil {
		return nil, err
	}

	var draft domain.CurriculumDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("%w: malformed curriculum draft: %v", generation.ErrInvalidResponse, err)
	}

	if draft.ID == "" {
		draft.ID = draft.Title
	}
	draft.ID = slug.Make(draft.ID)
	if draft.ID == "" {
		return nil, fmt.Errorf("%w: curriculum draft has no usable identifier", generation.ErrInvalidResponse)
	}

	d.logger.InfoContext(ctx, "curriculum draft produced",
		slog.String("draft_id", draft.ID),
		slog.Int("phases", len(draft.Phases)),
		slog.Int("attempt", in.Iteration+1))

	return &generation.Output{Draft: &draft}, nil
}

// formatFeedback flattens the previous cycle's critique issues and verdict
// violations into the bullet list the designer prompt embeds. Returns ""
// on the first iteration when there is nothing to repair.
func formatFeedback(critique *domain.Critique, verdict *domain.QualityVerdict) string {
	var b strings.Builder

	if critique != nil {
		for _, issue := range critique.Issues {
			b.WriteString("- ")
			b.WriteString(strings.ToUpper(issue.Severity))
			b.WriteString(": ")
			b.WriteString(issue.Issue)
			if issue.TaskID != "" {
				fmt.Fprintf(&b, " (task %s)", issue.TaskID)
			}
			if issue.Suggestion != "" {
				b.WriteString(" Suggestion: ")
				b.WriteString(issue.Suggestion)
			}
			b.WriteString("\n")
		}
	}

	if verdict != nil {
		for _, v := range verdict.Violations {
			b.WriteString("- VIOLATION of ")
			b.WriteString(v.Principle)
			b.WriteString(": ")
			b.WriteString(v.Issue)
			if v.TaskID != "" {
				fmt.Fprintf(&b, " (task %s)", v.TaskID)
			}
			if v.Fix != "" {
				b.WriteString(" Fix: ")
				b.WriteString(v.Fix)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
