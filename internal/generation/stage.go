// Package generation defines the contract between the workflow orchestrator
// and the reasoning stages that produce curriculum content.
package generation

import (
	"context"
	"fmt"

	"github.com/pathforge/pathforge-api/internal/domain"
)

// Role identifies one of the four reasoning stages.
type Role string

// The four stage roles, in pipeline order.
const (
	RoleResearcher Role = "researcher"
	RoleDesigner   Role = "designer"
	RoleReviewer   Role = "reviewer"
	RoleGatekeeper Role = "gatekeeper"
)

// Input is the accumulated workflow state a stage consumes. Stages are pure
// functions of their input: they may be invoked any number of times across
// iterations and must not assume in-process memory beyond these fields.
//
// Fields are nil until the producing stage has run. On iterations past the
// first, the Designer sees the previous Critique and Verdict so it can repair
// the flagged issues.
type Input struct {
	Request   domain.GenerationRequest
	Findings  *domain.ResearchFindings
	Draft     *domain.CurriculumDraft
	Critique  *domain.Critique
	Verdict   *domain.QualityVerdict
	Iteration int
}

// Output is a stage's typed result. Exactly one field is set, matching the
// producing stage's role; the orchestrator applies it to the workflow state.
type Output struct {
	Findings *domain.ResearchFindings
	Draft    *domain.CurriculumDraft
	Critique *domain.Critique
	Verdict  *domain.QualityVerdict
}

// Stage is a single request/response reasoning unit. All four roles share
// this contract so the orchestrator can treat them uniformly for retry and
// timeout wrapping.
//
// Run must honor ctx cancellation: a stage call is a suspension point and an
// aborted request must not leak in-flight work. Errors are classified with
// the sentinels in this package; anything wrapping ErrTransient is retried
// against the stage's local budget.
type Stage interface {
	Role() Role
	Run(ctx context.Context, in Input) (*Output, error)
}

// ValidateOutput checks that a stage's output carries the field its role is
// contracted to produce. A missing or mistyped result is a stage failure.
func ValidateOutput(role Role, out *Output) error {
	if out == nil {
		return fmt.Errorf("%w: %s returned no output", ErrInvalidResponse, role)
	}

	var ok bool
	switch role {
	case RoleResearcher:
		ok = out.Findings != nil
	case RoleDesigner:
		ok = out.Draft != nil
	case RoleReviewer:
		ok = out.Critique != nil
	case RoleGatekeeper:
		ok = out.Verdict != nil
	}

	if !ok {
		return fmt.Errorf("%w: %s output missing its typed result", ErrInvalidResponse, role)
	}
	return nil
}
