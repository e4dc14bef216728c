package domain

import (
	"fmt"
	"strings"
)

// ExperienceLevel represents the learner's self-reported experience.
type ExperienceLevel string

// Possible experience levels.
const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// Topic and context length bounds for generation requests.
const (
	MinTopicLength   = 3
	MaxTopicLength   = 100
	MaxContextLength = 500
)

// GenerationRequest describes what curriculum to generate. It is immutable
// once accepted: the workflow threads it through every stage unchanged.
type GenerationRequest struct {
	Topic           string          `json:"topic"`
	Context         string          `json:"context,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
}

// NewGenerationRequest validates and normalizes a generation request.
// An empty experience level defaults to intermediate.
func NewGenerationRequest(topic, context string, level ExperienceLevel) (*GenerationRequest, error) {
	if level == "" {
		level = ExperienceIntermediate
	}

	req := &GenerationRequest{
		Topic:           strings.TrimSpace(topic),
		Context:         strings.TrimSpace(context),
		ExperienceLevel: level,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks the request against the accepted bounds.
func (r *GenerationRequest) Validate() error {
	if n := len(r.Topic); n < MinTopicLength || n > MaxTopicLength {
		return fmt.Errorf("%w: topic must be %d-%d characters, got %d",
			ErrInvalidTopic, MinTopicLength, MaxTopicLength, n)
	}

	if len(r.Context) > MaxContextLength {
		return fmt.Errorf("%w: context must be at most %d characters, got %d",
			ErrContextTooLong, MaxContextLength, len(r.Context))
	}

	switch r.ExperienceLevel {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidExperienceLevel, r.ExperienceLevel)
	}
}
