package util

import "testing"

func TestRedactSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "request failed: 503", want: "request failed: 503"},
		{
			name: "bearer",
			in:   "auth failed: Bearer eyJabc.def.ghi rejected",
			want: "auth failed: Bearer <redacted> rejected",
		},
		{
			name: "api_key_kv",
			in:   "call failed: api_key=sk-live-123",
			want: "call failed: <redacted_kv>",
		},
		{
			name: "gemini_key_in_url",
			in:   "GET https://example.test/v1?key=x failed for AIzaSyA1234567890abcdef",
			want: "GET https://example.test/v1?key=x failed for <redacted_key>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactSecrets(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
