package domain

import "fmt"

// ResearchFindings is the Researcher stage's topic analysis. It grounds every
// later Designer invocation and is produced exactly once per run.
type ResearchFindings struct {
	Summary       string        `json:"summary"`
	UseCases      []string      `json:"use_cases"`
	Prerequisites []string      `json:"prerequisites"`
	CoreConcepts  []CoreConcept `json:"core_concepts"`
	Ecosystem     Ecosystem     `json:"ecosystem"`
	Scope         ScopeHints    `json:"scope_assessment"`
	Confidence    string        `json:"confidence"`
}

// CoreConcept is one concept to cover, in learning order.
type CoreConcept struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Difficulty  int    `json:"difficulty"`
	Phase       int    `json:"phase"`
	Description string `json:"description"`
}

// Ecosystem lists the tooling a learner will encounter.
type Ecosystem struct {
	EssentialTools    []string `json:"essential_tools"`
	BuildTools        []string `json:"build_tools"`
	TestingFrameworks []string `json:"testing_frameworks"`
	PackageManagers   []string `json:"package_managers"`
	KeyResources      []string `json:"key_resources"`
}

// ScopeHints sizes the curriculum the Designer should produce.
type ScopeHints struct {
	Type            string  `json:"type"`
	EstimatedHours  float64 `json:"estimated_hours"`
	SuggestedTasks  int     `json:"suggested_tasks"`
	SuggestedPhases int     `json:"suggested_phases"`
	Complexity      string  `json:"complexity"`
}

// Critique severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// CritiqueIssue is one flagged problem, tagged to a task where applicable.
type CritiqueIssue struct {
	Severity   string `json:"severity"`
	TaskID     string `json:"task_id,omitempty"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Critique is the Reviewer stage's structured assessment of a draft:
// technical accuracy, difficulty calibration, and a pass/fail recommendation.
type Critique struct {
	Pass       bool               `json:"pass"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
	Issues     []CritiqueIssue    `json:"issues"`
	Strengths  []string           `json:"strengths,omitempty"`
}

// HighSeverityCount returns the number of high-severity issues.
func (c *Critique) HighSeverityCount() int {
	n := 0
	for _, issue := range c.Issues {
		if issue.Severity == SeverityHigh {
			n++
		}
	}
	return n
}

// Violation is one curation-philosophy breach found by the Gatekeeper.
type Violation struct {
	Principle string `json:"principle"`
	TaskID    string `json:"task_id,omitempty"`
	Issue     string `json:"issue"`
	Fix       string `json:"fix,omitempty"`
}

// QualityVerdict is the Gatekeeper stage's scalar judgment of a draft's
// adherence to the curation philosophy. Score is the only place a quality
// score originates; nothing else mutates it.
type QualityVerdict struct {
	Approved   bool               `json:"approved"`
	Score      float64            `json:"score"`
	Scores     map[string]float64 `json:"scores"`
	Violations []Violation        `json:"violations"`
	Summary    string             `json:"summary,omitempty"`
}

// Validate checks that the verdict's score is a usable quality score.
func (v *QualityVerdict) Validate() error {
	if v.Score < 0 || v.Score > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidQualityScore, v.Score)
	}
	return nil
}
