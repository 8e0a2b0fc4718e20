package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"a": 1}`,
			want:     `{"a": 1}`,
		},
		{
			name:     "fenced with prose",
			response: "Sure, here is the data:\n```json\n{\"a\": 1}\n```\nLet me know!",
			want:     `{"a": 1}`,
		},
		{
			name:     "nested braces",
			response: `prefix {"a": {"b": {"c": 3}}} suffix`,
			want:     `{"a": {"b": {"c": 3}}}`,
		},
		{
			name:     "braces inside strings",
			response: `{"text": "look: { not a brace }"}`,
			want:     `{"text": "look: { not a brace }"}`,
		},
		{
			name:     "array response",
			response: `the list: [1, 2, 3]`,
			want:     `[1, 2, 3]`,
		},
		{
			name:     "no json",
			response: "I cannot produce that.",
			wantErr:  true,
		},
		{
			name:     "unbalanced",
			response: `{"a": 1`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
	}

	got, err := ParseJSONResponse[payload]("```json\n{\"summary\": \"ok\", \"tags\": [\"a\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Summary)
	assert.Equal(t, []string{"a"}, got.Tags)

	_, err = ParseJSONResponse[payload](`{"summary": 42}`)
	assert.Error(t, err)
}
