package llm

import (
	"errors"
	"fmt"
	"testing"
)

var (
	_ TextGenerator = (*Gemini)(nil)
	_ JSONGenerator = (*Gemini)(nil)
	_ Embedder      = (*Gemini)(nil)
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsQuota(t *testing.T) {
	if !IsQuota(ErrQuotaExhausted) {
		t.Error("sentinel should be quota")
	}
	if !IsQuota(fmt.Errorf("call failed: %w", ErrQuotaExhausted)) {
		t.Error("wrapped sentinel should be quota")
	}
	if !IsQuota(errors.New("rpc error: RESOURCE_EXHAUSTED: rate limited")) {
		t.Error("RESOURCE_EXHAUSTED message should be quota")
	}
	if IsQuota(errors.New("connection reset by peer")) {
		t.Error("transient network error is not quota")
	}
}
