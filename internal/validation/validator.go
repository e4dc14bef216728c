// Package validation implements the reference validator: policy
// classification and concurrent liveness checking of the resource URLs in a
// finalized curriculum draft.
package validation

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pathforge/pathforge-api/internal/config"
	"github.com/pathforge/pathforge-api/internal/domain"
)

const userAgent = "PathForge-Validator/1.0"

// Validator turns a CurriculumDraft into a ValidatedCurriculum: resources
// rejected by policy are removed, the rest are liveness-checked with bounded
// parallelism and tagged reachable or not. Validation failures never fail the
// surrounding job; a timeout or DNS error only flags the one resource.
type Validator struct {
	policy        *Policy
	client        *http.Client
	enabled       bool
	timeout       time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// NewValidator creates a Validator from the validation configuration. When
// validation is disabled the Validator passes every resource through tagged
// reachable without touching the network.
func NewValidator(cfg config.ValidationConfig, policy *Policy, logger *slog.Logger) *Validator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 10
	}

	return &Validator{
		policy:  policy,
		enabled: cfg.Enabled,
		timeout: timeout,
		client: &http.Client{
			// The overall timeout is per request; the per-URL context carries
			// the real deadline.
			Timeout: timeout,
		},
		maxConcurrent: maxConcurrent,
		logger:        logger.With(slog.String("component", "reference_validator")),
	}
}

// urlVerdict is the merged policy and liveness outcome for one URL.
type urlVerdict struct {
	keep      bool
	reachable bool
}

// Validate classifies and liveness-checks every resource URL in the draft and
// returns the validated curriculum. Duplicate URLs are checked once and the
// result broadcast to every occurrence. The input draft is not mutated.
//
// The only returned error is ctx cancellation.
func (v *Validator) Validate(ctx context.Context, draft *domain.CurriculumDraft) (*domain.ValidatedCurriculum, error) {
	out := (*domain.ValidatedCurriculum)(draft.Clone())

	if !v.enabled {
		forEachResource(out, func(res *domain.Resource) bool {
			res.Reachable = true
			return true
		})
		return out, nil
	}

	urls := draft.ResourceURLs()
	verdicts := make(map[string]urlVerdict, len(urls))

	var toCheck []string
	for _, u := range urls {
		switch v.policy.Classify(u) {
		case DecisionDeny:
			verdicts[u] = urlVerdict{keep: false}
		default:
			toCheck = append(toCheck, u)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxConcurrent)

	for _, u := range toCheck {
		u := u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reachable := v.checkLiveness(gctx, u)
			mu.Lock()
			verdicts[u] = urlVerdict{keep: true, reachable: reachable}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dropped, unreachable := 0, 0
	forEachResource(out, func(res *domain.Resource) bool {
		verdict := verdicts[res.URL]
		if !verdict.keep {
			dropped++
			return false
		}
		res.Reachable = verdict.reachable
		if !verdict.reachable {
			unreachable++
		}
		return true
	})

	v.logger.InfoContext(ctx, "resource validation complete",
		slog.Int("urls_checked", len(toCheck)),
		slog.Int("dropped_by_policy", dropped),
		slog.Int("unreachable", unreachable))

	return out, nil
}

// checkLiveness probes one URL within the per-URL timeout: HEAD first, then
// GET when HEAD is rejected. Any error or status >= 400 means unreachable.
func (v *Validator) checkLiveness(ctx context.Context, rawURL string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	status, err := v.probe(reqCtx, http.MethodHead, rawURL)
	if err == nil && status < 400 {
		return true
	}

	// Some hosts reject HEAD outright; give GET one chance.
	status, err = v.probe(reqCtx, http.MethodGet, rawURL)
	if err != nil {
		v.logger.DebugContext(ctx, "liveness check failed",
			slog.String("url", rawURL),
			slog.String("error", err.Error()))
		return false
	}
	return status < 400
}

func (v *Validator) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}

// forEachResource walks every resource in the curriculum. The callback
// returns false to remove the resource.
func forEachResource(c *domain.ValidatedCurriculum, fn func(*domain.Resource) bool) {
	for pi := range c.Phases {
		for ti := range c.Phases[pi].Tasks {
			task := &c.Phases[pi].Tasks[ti]
			kept := task.Resources[:0]
			for ri := range task.Resources {
				if fn(&task.Resources[ri]) {
					kept = append(kept, task.Resources[ri])
				}
			}
			task.Resources = kept
		}
	}
}
