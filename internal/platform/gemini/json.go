package gemini

import (
	"fmt"
	"strings"

	"github.com/pathforge/pathforge-api/internal/generation"
)

// extractJSON reduces a model response to the JSON document inside it.
// Models wrap output in markdown fences or prepend prose despite being told
// not to, so the extraction is lenient: fenced blocks are unwrapped first,
// then the first balanced top-level object is taken.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	} else if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		if start == -1 {
			return "", fmt.Errorf("%w: no JSON object in response", generation.ErrInvalidResponse)
		}
		s = s[start:]
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: unbalanced JSON object in response", generation.ErrInvalidResponse)
}
