package domain

import (
	"fmt"
	"sort"
)

// ResourceType classifies a reference resource attached to a task.
type ResourceType string

// Possible resource types.
const (
	ResourceDocumentation ResourceType = "documentation"
	ResourceReference     ResourceType = "reference"
	ResourceArticle       ResourceType = "article"
	ResourceBook          ResourceType = "book"
)

// Resource is a candidate reference link for a task. Reachable is only
// meaningful on a ValidatedCurriculum; on a raw draft it is always false.
type Resource struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Type        ResourceType `json:"type"`
	Description string       `json:"description"`
	Reachable   bool         `json:"reachable"`
}

// Task is one project in a learning path. Prerequisites reference task IDs
// that must appear earlier in the same draft.
type Task struct {
	ID                 string     `json:"id"`
	PhaseID            string     `json:"phaseId"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Difficulty         int        `json:"difficulty"`
	EstimatedHours     float64    `json:"estimatedHours"`
	Requirements       []string   `json:"requirements"`
	AcceptanceCriteria []string   `json:"acceptanceCriteria"`
	Prerequisites      []string   `json:"prerequisites"`
	Resources          []Resource `json:"resources"`
}

// Phase is an ordered group of tasks within a curriculum.
type Phase struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Tasks       []Task `json:"tasks"`
}

// CurriculumDraft is one full candidate curriculum produced by a single
// Designer invocation. Drafts are full replacements, never patches.
type CurriculumDraft struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Version        string   `json:"version"`
	Language       string   `json:"language"`
	Area           string   `json:"area"`
	Prerequisites  []string `json:"prerequisites"`
	TotalTasks     int      `json:"totalTasks"`
	EstimatedHours float64  `json:"estimatedHours"`
	Phases         []Phase  `json:"phases"`
}

// ValidatedCurriculum is a CurriculumDraft whose resources have been run
// through the reference validator: policy-rejected resources are removed and
// the survivors carry a meaningful Reachable flag.
type ValidatedCurriculum CurriculumDraft

// Validate checks the structural invariants of a draft: at least one task,
// difficulties in 1-5, positive hour estimates, valid resource types, and
// prerequisite references that resolve only to tasks at strictly earlier
// positions. The ordering rule makes forward references and cycles impossible.
func (d *CurriculumDraft) Validate() error {
	seen := make(map[string]struct{})
	taskCount := 0

	phases := d.orderedPhases()
	for _, phase := range phases {
		if len(phase.Tasks) == 0 {
			return fmt.Errorf("%w: phase %q has no tasks", ErrEmptyDraft, phase.ID)
		}

		for _, task := range phase.Tasks {
			taskCount++

			if task.Difficulty < 1 || task.Difficulty > 5 {
				return fmt.Errorf("%w: task %q has difficulty %d",
					ErrInvalidDifficulty, task.ID, task.Difficulty)
			}

			if task.EstimatedHours <= 0 {
				return fmt.Errorf("%w: task %q has estimate %v",
					ErrInvalidEstimatedHours, task.ID, task.EstimatedHours)
			}

			for _, prereq := range task.Prerequisites {
				if _, ok := seen[prereq]; !ok {
					return fmt.Errorf("%w: task %q references %q which does not appear earlier in the draft",
						ErrInvalidPrerequisite, task.ID, prereq)
				}
			}

			for _, res := range task.Resources {
				if !isValidResourceType(res.Type) {
					return fmt.Errorf("%w: task %q resource %q has type %q",
						ErrInvalidResourceType, task.ID, res.URL, res.Type)
				}
			}

			seen[task.ID] = struct{}{}
		}
	}

	if taskCount == 0 {
		return ErrEmptyDraft
	}

	return nil
}

// Normalize recomputes the derived totals from the phase/task structure and
// stamps each task with its owning phase ID. Stage output is untrusted, so
// the counts it reports are never taken at face value.
func (d *CurriculumDraft) Normalize() {
	total := 0
	hours := 0.0

	sort.SliceStable(d.Phases, func(i, j int) bool {
		return d.Phases[i].Order < d.Phases[j].Order
	})

	for pi := range d.Phases {
		for ti := range d.Phases[pi].Tasks {
			d.Phases[pi].Tasks[ti].PhaseID = d.Phases[pi].ID
			total++
			hours += d.Phases[pi].Tasks[ti].EstimatedHours
		}
	}

	d.TotalTasks = total
	d.EstimatedHours = hours
}

// Clone returns a deep copy of the draft. The orchestrator retains the
// best-scoring draft across iterations, so retained drafts must not alias
// slices that a later stage may rewrite.
func (d *CurriculumDraft) Clone() *CurriculumDraft {
	if d == nil {
		return nil
	}

	out := *d
	out.Prerequisites = append([]string(nil), d.Prerequisites...)
	out.Phases = make([]Phase, len(d.Phases))

	for pi, phase := range d.Phases {
		p := phase
		p.Tasks = make([]Task, len(phase.Tasks))
		for ti, task := range phase.Tasks {
			t := task
			t.Requirements = append([]string(nil), task.Requirements...)
			t.AcceptanceCriteria = append([]string(nil), task.AcceptanceCriteria...)
			t.Prerequisites = append([]string(nil), task.Prerequisites...)
			t.Resources = append([]Resource(nil), task.Resources...)
			p.Tasks[ti] = t
		}
		out.Phases[pi] = p
	}

	return &out
}

// ResourceURLs returns the deduplicated set of resource URLs across the
// draft, in first-seen order.
func (d *CurriculumDraft) ResourceURLs() []string {
	seen := make(map[string]struct{})
	var urls []string

	for _, phase := range d.Phases {
		for _, task := range phase.Tasks {
			for _, res := range task.Resources {
				if _, ok := seen[res.URL]; ok {
					continue
				}
				seen[res.URL] = struct{}{}
				urls = append(urls, res.URL)
			}
		}
	}

	return urls
}

// orderedPhases returns the phases sorted by their order index without
// mutating the draft.
func (d *CurriculumDraft) orderedPhases() []Phase {
	phases := append([]Phase(nil), d.Phases...)
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Order < phases[j].Order
	})
	return phases
}

// isValidResourceType checks if the given type is a valid ResourceType.
func isValidResourceType(t ResourceType) bool {
	switch t {
	case ResourceDocumentation, ResourceReference, ResourceArticle, ResourceBook:
		return true
	default:
		return false
	}
}
