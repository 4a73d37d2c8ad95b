package relay

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  map[string]string
	}{
		{
			name:  "drops nil and stringifies numbers",
			input: map[string]any{"A": "1", "B": nil, "C": float64(2)},
			want:  map[string]string{"A": "1", "C": "2"},
		},
		{
			name:  "go ints and bools",
			input: map[string]any{"X-Count": 42, "X-Flag": true},
			want:  map[string]string{"X-Count": "42", "X-Flag": "true"},
		},
		{
			name:  "large floats keep plain notation",
			input: map[string]any{"X-Big": float64(100000000)},
			want:  map[string]string{"X-Big": "100000000"},
		},
		{
			name:  "string map passes through",
			input: map[string]string{"Accept": "application/json"},
			want:  map[string]string{"Accept": "application/json"},
		},
		{
			name:  "non-string keys are stringified",
			input: map[int]string{1: "one"},
			want:  map[string]string{"1": "one"},
		},
		{
			name:  "nil pointer values dropped",
			input: map[string]*string{"Missing": nil},
			want:  map[string]string{},
		},
		{
			name:  "http header takes first value",
			input: http.Header{"Accept": {"text/html", "text/plain"}},
			want:  map[string]string{"Accept": "text/html"},
		},
		{name: "nil", input: nil, want: map[string]string{}},
		{name: "string", input: "Accept: text/html", want: map[string]string{}},
		{name: "number", input: 12, want: map[string]string{}},
		{name: "slice", input: []any{"a", "b"}, want: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHeaders(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeHeaders_DoesNotAliasInput(t *testing.T) {
	input := map[string]string{"A": "1"}
	got := NormalizeHeaders(input)
	got["B"] = "2"

	assert.Len(t, input, 1)
}

func TestCollectHeaders(t *testing.T) {
	h := http.Header{}
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")
	h.Set("Content-Type", "text/plain")

	got := collectHeaders(h)

	assert.Equal(t, map[string]string{
		"set-cookie":   "a=1, b=2",
		"content-type": "text/plain",
	}, got)
	assert.Empty(t, collectHeaders(nil))
}
