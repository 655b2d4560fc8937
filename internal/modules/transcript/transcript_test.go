package transcript

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{name: "short text unchanged", text: "hello", max: 10, want: "hello"},
		{name: "exact length unchanged", text: "hello", max: 5, want: "hello"},
		{name: "long text capped", text: "hello world", max: 5, want: "hello"},
		{name: "zero max disables cap", text: "hello", max: 0, want: "hello"},
		{name: "multibyte runes not split", text: "héllo wörld", max: 6, want: "héllo "},
		{name: "empty text", text: "", max: 5, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}
