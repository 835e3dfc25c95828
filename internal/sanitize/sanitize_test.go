package sanitize

import (
	"strings"
	"testing"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "passthrough clean text", input: "baseline seed 42", want: "baseline seed 42"},
		{name: "strip null bytes", input: "base\x00line", want: "baseline"},
		{name: "strip control characters", input: "a\x01b\x07c\x1b[31m", want: "abc[31m"},
		{name: "strip DEL", input: "run\x7f", want: "run"},
		{name: "collapse newlines and tabs", input: "high\n\nnoise\tsweep", want: "high noise sweep"},
		{name: "strip tags", input: "<b>bold</b> run <script>x</script>", want: "bold run x"},
		{name: "trim", input: "   spaced   ", want: "spaced"},
		{name: "unicode kept", input: "prüfung α", want: "prüfung α"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.input); got != tt.want {
				t.Errorf("Label(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabel_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxLabelLength+20)
	got := Label(long)
	if n := len([]rune(got)); n != MaxLabelLength {
		t.Errorf("Label() kept %d runes, want %d", n, MaxLabelLength)
	}
}

func TestRef(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "full id", input: "3f2b9c1e-8d4a-4e7f-9b21-0c5d6e7f8a90", want: "3f2b9c1e-8d4a-4e7f-9b21-0c5d6e7f8a90"},
		{name: "prefix", input: "3f2b", want: "3f2b"},
		{name: "uppercase folded", input: "3F2B", want: "3f2b"},
		{name: "junk dropped", input: "3f2b; rm -rf /", want: "3f2b-f"},
		{name: "repeated hyphens", input: "ab--cd", want: "ab-cd"},
		{name: "truncated", input: strings.Repeat("a", 50), want: strings.Repeat("a", MaxRefLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ref(tt.input); got != tt.want {
				t.Errorf("Ref(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
