package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

// Config holds the orchestrator's loop and retry settings.
type Config struct {
	// MaxIterations caps the Designer->Reviewer->Gatekeeper cycles.
	MaxIterations int

	// QualityThreshold is the minimum Gatekeeper score for approval.
	// A score exactly at the threshold passes.
	QualityThreshold float64

	// StageMaxRetries is the local retry budget per stage invocation.
	// Local retries never consume the iteration budget.
	StageMaxRetries uint64

	// RetryBaseDelay is the base delay for exponential backoff between
	// local retries.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    5,
		QualityThreshold: 0.85,
		StageMaxRetries:  2,
		RetryBaseDelay:   2 * time.Second,
	}
}

// Result is the outcome of one orchestrator run. Exhausted is not an error:
// it carries the best-scoring draft seen so callers always receive a usable
// curriculum when at least one Designer pass succeeded.
type Result struct {
	Status               domain.JobStatus
	Draft                *domain.CurriculumDraft
	Score                float64
	Iterations           int
	Approved             bool
	MaxIterationsReached bool
	Reason               string
	Critique             *domain.Critique
	Verdict              *domain.QualityVerdict
}

// Orchestrator sequences the four reasoning stages, applies the accept/reject
// decision, enforces the iteration budget, and decides termination.
type Orchestrator struct {
	stages map[generation.Role]generation.Stage
	config Config
	logger *slog.Logger
}

// New creates an Orchestrator over the four stages. All four roles must be
// present and each stage must report the role it is registered under.
func New(stages []generation.Stage, config Config, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxIterations < 1 {
		return nil, fmt.Errorf("%w: max iterations must be at least 1", generation.ErrInvalidConfig)
	}
	if config.QualityThreshold < 0 || config.QualityThreshold > 1 {
		return nil, fmt.Errorf("%w: quality threshold must be in [0,1]", generation.ErrInvalidConfig)
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 2 * time.Second
	}

	byRole := make(map[generation.Role]generation.Stage, len(stages))
	for _, stage := range stages {
		byRole[stage.Role()] = stage
	}
	for _, role := range []generation.Role{
		generation.RoleResearcher,
		generation.RoleDesigner,
		generation.RoleReviewer,
		generation.RoleGatekeeper,
	} {
		if _, ok := byRole[role]; !ok {
			return nil, fmt.Errorf("%w: missing %s stage", generation.ErrInvalidConfig, role)
		}
	}

	return &Orchestrator{
		stages: byRole,
		config: config,
		logger: logger.With(slog.String("component", "orchestrator")),
	}, nil
}

// Run drives one generation request to a terminal state. It returns an error
// only when ctx is canceled; every other outcome, including failure, is
// reported through the Result so callers can persist it.
func (o *Orchestrator) Run(ctx context.Context, req domain.GenerationRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state := NewState(req)
	log := o.logger.With(slog.String("topic", req.Topic))

	// RESEARCHING: a researcher failure is fatal for the job since no draft
	// can be grounded without topic context.
	out, err := o.runStage(ctx, generation.RoleResearcher, state)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("research stage exhausted, failing run", slog.String("error", err.Error()))
		state.Terminate(PhaseFailed, err.Error())
		return o.result(state, 0), nil
	}
	state.Apply(generation.RoleResearcher, out)

	cycles := 0
	for {
		state.Phase = PhaseDesigning
		out, err = o.runStage(ctx, generation.RoleDesigner, state)
		if err != nil {
			return o.degrade(ctx, state, cycles, err)
		}
		state.Apply(generation.RoleDesigner, out)
		cycles++

		log.Info("draft produced",
			slog.Int("cycle", cycles),
			slog.Int("tasks", state.Draft.TotalTasks),
			slog.Int("phases", len(state.Draft.Phases)))

		state.Phase = PhaseReviewing
		out, err = o.runStage(ctx, generation.RoleReviewer, state)
		if err != nil {
			return o.degrade(ctx, state, cycles, err)
		}
		state.Apply(generation.RoleReviewer, out)

		state.Phase = PhaseGatekeeping
		out, err = o.runStage(ctx, generation.RoleGatekeeper, state)
		if err != nil {
			return o.degrade(ctx, state, cycles, err)
		}
		state.Apply(generation.RoleGatekeeper, out)

		approved := state.Verdict.Score >= o.config.QualityThreshold && state.Critique.Pass
		log.Info("gate decision",
			slog.Int("cycle", cycles),
			slog.Float64("score", state.Verdict.Score),
			slog.Bool("reviewer_pass", state.Critique.Pass),
			slog.Bool("approved", approved))

		if approved {
			state.Phase = PhaseFinalizing
			state.Terminate(PhaseApproved, "quality gate satisfied")
			res := o.result(state, cycles)
			res.Draft = state.Draft
			res.Score = state.Verdict.Score
			return res, nil
		}

		state.Iteration++
		if state.Iteration >= o.config.MaxIterations {
			log.Warn("iteration budget exhausted, finalizing with best draft",
				slog.Int("iterations", state.Iteration),
				slog.Float64("best_score", state.BestScore))
			state.Terminate(PhaseExhausted, "max iterations reached")
			return o.result(state, cycles), nil
		}
	}
}

// degrade handles an exhausted Designer/Reviewer/Gatekeeper stage: the run
// ends exhausted with the best prior draft when one exists, failed otherwise.
func (o *Orchestrator) degrade(ctx context.Context, state *State, cycles int, err error) (*Result, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if state.HasBestDraft() {
		o.logger.Warn("stage exhausted, degrading to best prior draft",
			slog.String("error", err.Error()),
			slog.Float64("best_score", state.BestScore))
		state.Terminate(PhaseExhausted, err.Error())
	} else {
		o.logger.Error("stage exhausted with no usable draft, failing run",
			slog.String("error", err.Error()))
		state.Terminate(PhaseFailed, err.Error())
	}
	return o.result(state, cycles), nil
}

// result assembles the terminal Result from the state. Exhausted runs carry
// the retained best draft and its score, not the latest ones.
func (o *Orchestrator) result(state *State, cycles int) *Result {
	res := &Result{
		Iterations:           cycles,
		Reason:               state.Reason,
		Critique:             state.Critique,
		Verdict:              state.Verdict,
		MaxIterationsReached: state.Iteration >= o.config.MaxIterations,
	}

	switch state.Phase {
	case PhaseApproved:
		res.Status = domain.JobStatusApproved
		res.Approved = true
	case PhaseExhausted:
		res.Status = domain.JobStatusExhausted
		res.Draft = state.BestDraft
		res.Score = state.BestScore
	default:
		res.Status = domain.JobStatusFailed
	}

	return res
}

// runStage invokes one stage with local retry. Transient failures and
// malformed structured output are retried with exponential backoff and
// jitter up to the configured budget; content refusals are permanent.
// Designer output is additionally validated structurally, and a zero-task or
// badly-referenced draft counts against this local budget, not the
// iteration budget.
func (o *Orchestrator) runStage(ctx context.Context, role generation.Role, state *State) (*generation.Output, error) {
	stage := o.stages[role]

	backoff := retry.NewExponential(o.config.RetryBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(o.config.StageMaxRetries, backoff)

	var out *generation.Output
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		res, err := stage.Run(ctx, state.Input())
		if err != nil {
			if errors.Is(err, generation.ErrTransient) || errors.Is(err, generation.ErrInvalidResponse) {
				o.logger.Warn("stage attempt failed, retrying",
					slog.String("role", string(role)),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
				return retry.RetryableError(err)
			}
			return err
		}

		if err := generation.ValidateOutput(role, res); err != nil {
			return retry.RetryableError(err)
		}

		if role == generation.RoleDesigner {
			res.Draft.Normalize()
			if err := res.Draft.Validate(); err != nil {
				o.logger.Warn("designer draft failed structural validation, retrying",
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
				return retry.RetryableError(fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err))
			}
		}

		if verdict := res.Verdict; verdict != nil {
			if err := verdict.Validate(); err != nil {
				return retry.RetryableError(fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err))
			}
		}

		out = res
		return nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s failed after %d attempts: %v",
			generation.ErrStageExhausted, role, attempt, err)
	}

	return out, nil
}
