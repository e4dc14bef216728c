package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge-api/internal/generation"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"approved": true}`,
			want:  `{"approved": true}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"score\": 0.9}\n```",
			want:  `{"score": 0.9}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"score\": 0.9}\n```",
			want:  `{"score": 0.9}`,
		},
		{
			name:  "prose before and after",
			input: "Here is the result:\n{\"pass\": false}\nLet me know if you need changes.",
			want:  `{"pass": false}`,
		},
		{
			name:  "nested objects",
			input: `{"scores": {"accuracy": 0.8}, "issues": []}`,
			want:  `{"scores": {"accuracy": 0.8}, "issues": []}`,
		},
		{
			name:  "braces inside strings do not confuse matching",
			input: `{"summary": "use {} literals", "pass": true} trailing`,
			want:  `{"summary": "use {} literals", "pass": true}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"summary": "a \"quoted\" term"} extra`,
			want:  `{"summary": "a \"quoted\" term"}`,
		},
		{
			name:    "no object at all",
			input:   "I cannot produce that.",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"summary": "truncated`,
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := extractJSON(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, generation.ErrInvalidResponse)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), "extracted payload must be valid JSON")
		})
	}
}
