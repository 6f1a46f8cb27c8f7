package ollama

import "testing"

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  I am calm.  ", "I am calm."},
		{`"I am calm."`, "I am calm."},
		{"<think>hmm</think>I am calm.", "I am calm."},
		{"Here's the script: I am calm.", "I am calm."},
		{"Script: I am calm.", "I am calm."},
		{"Title: misty morning", "misty morning"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanOutput(tt.in); got != tt.want {
			t.Errorf("cleanOutput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
