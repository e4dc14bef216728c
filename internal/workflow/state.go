// Package workflow implements the generation state machine: the accumulator
// threaded through the reasoning stages and the orchestrator that sequences
// them, applies the quality gate, and enforces the iteration budget.
package workflow

import (
	"time"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

// Phase is the orchestrator's current position in the state machine.
type Phase string

// State machine phases. The three terminal phases are absorbing.
const (
	PhaseResearching Phase = "researching"
	PhaseDesigning   Phase = "designing"
	PhaseReviewing   Phase = "reviewing"
	PhaseGatekeeping Phase = "gatekeeping"
	PhaseFinalizing  Phase = "finalizing"

	PhaseApproved  Phase = "approved"
	PhaseExhausted Phase = "exhausted"
	PhaseFailed    Phase = "failed"
)

// IsTerminal reports whether the phase is absorbing.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseApproved, PhaseExhausted, PhaseFailed:
		return true
	default:
		return false
	}
}

// State is the mutable accumulator threaded through one orchestrator run.
// It is exclusively owned by that run and never shared across jobs. Each
// stage output is applied through Apply, which keeps the quality-score and
// best-draft invariants in one place.
type State struct {
	Request domain.GenerationRequest

	Findings *domain.ResearchFindings
	Draft    *domain.CurriculumDraft
	Critique *domain.Critique
	Verdict  *domain.QualityVerdict

	// Iteration counts completed Designer->Reviewer->Gatekeeper cycles that
	// did not meet the approval condition. Monotonically non-decreasing.
	Iteration int

	Phase  Phase
	Reason string

	// BestDraft is the highest-scoring draft seen across all iterations,
	// retained because a later iteration is not guaranteed to improve.
	// Ties keep the earlier draft.
	BestDraft *domain.CurriculumDraft
	BestScore float64
	bestSet   bool

	StartedAt   time.Time
	CompletedAt time.Time
}

// NewState creates the initial state for a run.
func NewState(req domain.GenerationRequest) *State {
	return &State{
		Request:   req,
		Phase:     PhaseResearching,
		StartedAt: time.Now().UTC(),
	}
}

// Input snapshots the accumulated state for a stage invocation.
func (s *State) Input() generation.Input {
	return generation.Input{
		Request:   s.Request,
		Findings:  s.Findings,
		Draft:     s.Draft,
		Critique:  s.Critique,
		Verdict:   s.Verdict,
		Iteration: s.Iteration,
	}
}

// Apply merges a stage output into the state. The quality score is only ever
// set here, from a Gatekeeper verdict; best-draft retention compares with a
// strict greater-than so the first draft to reach a score wins ties.
func (s *State) Apply(role generation.Role, out *generation.Output) {
	switch role {
	case generation.RoleResearcher:
		s.Findings = out.Findings
	case generation.RoleDesigner:
		s.Draft = out.Draft
	case generation.RoleReviewer:
		s.Critique = out.Critique
	case generation.RoleGatekeeper:
		s.Verdict = out.Verdict
		if s.Draft != nil && (!s.bestSet || out.Verdict.Score > s.BestScore) {
			s.BestDraft = s.Draft.Clone()
			s.BestScore = out.Verdict.Score
			s.bestSet = true
		}
	}
}

// HasBestDraft reports whether at least one Designer pass survived a
// Gatekeeper scoring.
func (s *State) HasBestDraft() bool {
	return s.bestSet
}

// Terminate moves the state to a terminal phase with the given reason.
// Terminal phases are absorbing: a second call is a no-op.
func (s *State) Terminate(phase Phase, reason string) {
	if s.Phase.IsTerminal() {
		return
	}
	s.Phase = phase
	s.Reason = reason
	s.CompletedAt = time.Now().UTC()
}
