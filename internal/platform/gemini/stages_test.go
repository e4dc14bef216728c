package gemini

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/generation"
)

// fakeCompleter records the last prompt and returns a canned payload.
type fakeCompleter struct {
	payload    string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) GenerateJSON(ctx context.Context, prompt string, temperature float32) ([]byte, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.payload), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stageInput() generation.Input {
	return generation.Input{
		Request: domain.GenerationRequest{
			Topic:           "Rust",
			Context:         "coming from Python",
			ExperienceLevel: domain.ExperienceIntermediate,
		},
	}
}

const findingsPayload = `{
	"summary": "Systems programming language focused on safety",
	"use_cases": ["CLI tools", "network services"],
	"prerequisites": ["basic programming"],
	"core_concepts": [
		{"name": "ownership", "category": "fundamental", "difficulty": 3, "phase": 1, "description": "memory model"}
	],
	"ecosystem": {"essential_tools": ["cargo"], "package_managers": ["cargo"]},
	"scope_assessment": {"type": "language", "estimated_hours": 80, "suggested_tasks": 15, "suggested_phases": 4, "complexity": "high"},
	"confidence": "high"
}`

func TestResearcherRun(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{payload: findingsPayload}
	r := NewResearcher(llm, discardLogger())
	require.Equal(t, generation.RoleResearcher, r.Role())

	out, err := r.Run(context.Background(), stageInput())
	require.NoError(t, err)
	require.NotNil(t, out.Findings)

	assert.Equal(t, "Systems programming language focused on safety", out.Findings.Summary)
	assert.Len(t, out.Findings.CoreConcepts, 1)
	assert.Equal(t, 15, out.Findings.Scope.SuggestedTasks)

	assert.Contains(t, llm.lastPrompt, "Topic: Rust")
	assert.Contains(t, llm.lastPrompt, "coming from Python")
	assert.Contains(t, llm.lastPrompt, "intermediate")
}

func TestResearcherRejectsEmptyFindings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"missing summary", `{"core_concepts": [{"name": "x"}]}`},
		{"no concepts", `{"summary": "something"}`},
		{"not json", `"just a string"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewResearcher(&fakeCompleter{payload: tt.payload}, discardLogger())
			_, err := r.Run(context.Background(), stageInput())
			require.Error(t, err)
			assert.ErrorIs(t, err, generation.ErrInvalidResponse)
		})
	}
}

const draftPayload = `{
	"id": "Learn Rust Properly!",
	"title": "Learn Rust Properly",
	"description": "Project-based Rust path",
	"version": "1.0",
	"language": "Rust",
	"area": "Systems Programming",
	"phases": [
		{"id": "phase-1", "title": "Foundations", "order": 1, "tasks": [
			{"id": "task-1", "title": "CLI word counter", "difficulty": 2, "estimatedHours": 4}
		]}
	]
}`

func TestDesignerRun(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{payload: draftPayload}
	d := NewDesigner(llm, discardLogger())
	require.Equal(t, generation.RoleDesigner, d.Role())

	in := stageInput()
	in.Findings = &domain.ResearchFindings{Summary: "systems language"}

	out, err := d.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Draft)

	assert.Equal(t, "learn-rust-properly", out.Draft.ID, "draft ID must be slugified")
	assert.NotContains(t, llm.lastPrompt, "FEEDBACK FROM THE PREVIOUS ITERATION")
}

func TestDesignerRequiresFindings(t *testing.T) {
	t.Parallel()

	d := NewDesigner(&fakeCompleter{payload: draftPayload}, discardLogger())
	_, err := d.Run(context.Background(), stageInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestDesignerEmbedsFeedbackOnLaterIterations(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{payload: draftPayload}
	d := NewDesigner(llm, discardLogger())

	in := stageInput()
	in.Findings = &domain.ResearchFindings{Summary: "systems language"}
	in.Iteration = 1
	in.Critique = &domain.Critique{
		Issues: []domain.CritiqueIssue{
			{Severity: domain.SeverityHigh, TaskID: "task-3", Issue: "difficulty jump", Suggestion: "add an intermediate task"},
		},
	}
	in.Verdict = &domain.QualityVerdict{
		Violations: []domain.Violation{
			{Principle: "NO HAND-HOLDING", TaskID: "task-5", Issue: "contains how-to language", Fix: "keep only requirements"},
		},
	}

	_, err := d.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, llm.lastPrompt, "FEEDBACK FROM THE PREVIOUS ITERATION")
	assert.Contains(t, llm.lastPrompt, "HIGH: difficulty jump (task task-3)")
	assert.Contains(t, llm.lastPrompt, "VIOLATION of NO HAND-HOLDING")
	assert.Contains(t, llm.lastPrompt, "attempt 2")
}

func TestReviewerRun(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{payload: `{
		"pass": false,
		"confidence": 0.7,
		"scores": {"technical_accuracy": 0.9, "completeness": 0.5},
		"issues": [{"severity": "high", "issue": "missing error handling phase"}]
	}`}
	r := NewReviewer(llm, discardLogger())
	require.Equal(t, generation.RoleReviewer, r.Role())

	in := stageInput()
	in.Findings = &domain.ResearchFindings{Summary: "systems language"}
	in.Draft = &domain.CurriculumDraft{ID: "learn-rust", Title: "Learn Rust"}

	out, err := r.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Critique)

	assert.False(t, out.Critique.Pass)
	assert.Equal(t, 1, out.Critique.HighSeverityCount())
	assert.Contains(t, llm.lastPrompt, "learn-rust")
}

func TestReviewerRejectsScorelessCritique(t *testing.T) {
	t.Parallel()

	r := NewReviewer(&fakeCompleter{payload: `{"pass": true}`}, discardLogger())

	in := stageInput()
	in.Findings = &domain.ResearchFindings{Summary: "systems language"}
	in.Draft = &domain.CurriculumDraft{ID: "learn-rust"}

	_, err := r.Run(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestGatekeeperRecomputesOverallScore(t *testing.T) {
	t.Parallel()

	// The model claims 0.95 overall but its category scores average 0.80.
	llm := &fakeCompleter{payload: `{
		"approved": true,
		"score": 0.95,
		"scores": {"no_hand_holding": 0.9, "hands_on_only": 0.7},
		"violations": []
	}`}
	g := NewGatekeeper(llm, 5, discardLogger())
	require.Equal(t, generation.RoleGatekeeper, g.Role())

	in := stageInput()
	in.Draft = &domain.CurriculumDraft{ID: "learn-rust"}
	in.Critique = &domain.Critique{Pass: true}
	in.Iteration = 2

	out, err := g.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Verdict)

	assert.Equal(t, 0.80, out.Verdict.Score)
	assert.Contains(t, llm.lastPrompt, "iteration 3 of 5")
}

func TestGatekeeperRejectsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	g := NewGatekeeper(&fakeCompleter{payload: `{"approved": false, "score": 1.4}`}, 5, discardLogger())

	in := stageInput()
	in.Draft = &domain.CurriculumDraft{ID: "learn-rust"}
	in.Critique = &domain.Critique{}

	_, err := g.Run(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestStagesPropagateTransportErrors(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{err: generation.ErrTransient}
	in := stageInput()
	in.Findings = &domain.ResearchFindings{Summary: "x"}
	in.Draft = &domain.CurriculumDraft{ID: "x"}
	in.Critique = &domain.Critique{}

	stages := []generation.Stage{
		NewResearcher(llm, discardLogger()),
		NewDesigner(llm, discardLogger()),
		NewReviewer(llm, discardLogger()),
		NewGatekeeper(llm, 5, discardLogger()),
	}

	for _, s := range stages {
		_, err := s.Run(context.Background(), in)
		require.Error(t, err, "stage %s", s.Role())
		assert.ErrorIs(t, err, generation.ErrTransient, "stage %s", s.Role())
	}
}

func TestPromptTemplatesRender(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"researcher.tmpl", "designer.tmpl", "reviewer.tmpl", "gatekeeper.tmpl"} {
		prompt, err := renderPrompt(name, map[string]any{
			"Topic":           "Rust",
			"Context":         "",
			"ExperienceLevel": "intermediate",
			"Findings":        "{}",
			"Draft":           "{}",
			"Critique":        "{}",
			"Feedback":        "",
			"Attempt":         1,
			"MaxAttempts":     5,
		})
		require.NoError(t, err, "template %s", name)
		assert.True(t, strings.Contains(prompt, "JSON"), "template %s must demand JSON output", name)
	}
}
