package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"passthrough", "doubling-run_2.v1", "doubling-run_2.v1"},
		{"slash", "slow/one", "slow_one"},
		{"backslash and colon", `a\b:c`, "a_b_c"},
		{"spaces collapse", "long   name", "long_name"},
		{"parent reference", "../../etc/passwd", "_.._etc_passwd"},
		{"leading dot", ".hidden", "hidden"},
		{"non-ascii", "größe", "gr_e"},
		{"empty", "", "unnamed"},
		{"only separators", "///", "unnamed"},
		{"only dots", "..", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.input); got != tt.want {
				t.Errorf("FileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFileName_Truncates(t *testing.T) {
	got := FileName(strings.Repeat("a", MaxFileNameLength+50))
	if len(got) != MaxFileNameLength {
		t.Errorf("len(FileName) = %d, want %d", len(got), MaxFileNameLength)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"passthrough", "[1 2 3]", "[1 2 3]"},
		{"empty", "", ""},
		{"strip null bytes", "remember\x00 term", "remember term"},
		{"strip escape sequences", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"newlines become spaces", "one\ntwo\r\nthree", "one two three"},
		{"tabs and runs collapse", "a\t\t b", "a b"},
		{"trims", "  padded  ", "padded"},
		{"keeps unicode", "größe → 4", "größe → 4"},
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
	got := Label(strings.Repeat("é", MaxLabelLength+10))
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncation marker, got %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != MaxLabelLength {
		t.Errorf("kept %d runes, want %d", n, MaxLabelLength)
	}
}
