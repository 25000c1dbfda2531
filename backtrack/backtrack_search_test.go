package backtrack

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/bounded/input"
	"github.com/coregx/bounded/program"
)

func compileForTest(t *testing.T, pattern string) *program.Program {
	t.Helper()
	p, err := program.Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", pattern, err)
	}
	return p
}

func TestExec_CompiledPatterns(t *testing.T) {
	tests := []struct {
		pattern  string
		input    string
		expected bool
	}{
		// Simple literals
		{"hello", "hello world", true},
		{"hello", "world", false},
		{"hello", "say hello", true},

		// Character classes
		{`\d+`, "abc123def", true},
		{`\d+`, "abcdef", false},
		{`\w+`, "hello", true},
		{`\w+`, "   ", false},
		{`[a-z]+`, "hello", true},
		{`[a-z]+`, "HELLO", false},
		{`[A-Za-z]+`, "Hello", true},

		// Quantifiers
		{"a*", "", true},
		{"a+", "", false},
		{"a+", "a", true},
		{"a+", "aaa", true},
		{"a?", "", true},
		{"a{2,4}", "a", false},
		{"a{2,4}", "aa", true},
		{"a{2,4}", "aaaa", true},
		{"ab+?c", "abbc", true},
		{"ab*?c", "ac", true},

		// Alternation
		{"foo|bar", "foo", true},
		{"foo|bar", "bar", true},
		{"foo|bar", "baz", false},
		{"cat|dog|bird", "I have a dog", true},

		// Anchors
		{"^hello", "hello world", true},
		{"^hello", "say hello", false},
		{"world$", "hello world", true},
		{"world$", "world hello", false},
		{"^$", "", true},
		{"^$", "x", false},
		{`(?m)^foo`, "bar\nfoo", true},
		{`(?m)foo$`, "foo\nbar", true},

		// Word boundaries
		{`\bword\b`, "a word here", true},
		{`\bword\b`, "wordy", false},
		{`\Bord\B`, "wordy", true},

		// Dot
		{"a.c", "abc", true},
		{"a.c", "aXc", true},
		{"a.c", "ac", false},
		{"a.c", "a\nc", false},
		{"a.*c", "aXXXc", true},

		// Empty pattern
		{"", "", true},
		{"", "anything", true},

		// Case folding
		{"(?i)hello", "HeLLo", true},
		{"(?i)hello", "HELP", false},

		// Unicode
		{"héllo", "say héllo", true},
		{`\pL+`, "日本語", true},
		{`\w+`, "日本語", false},
		{"日本", "学ぶ日本語", true},

		// Groups compile transparently
		{"(ab)+c", "ababc", true},
		{"(ab)+c", "abbc", false},

		// Complex patterns
		{`\d{3}-\d{4}`, "123-4567", true},
		{`\d{3}-\d{4}`, "12-4567", false},
		{`[a-z]+@[a-z]+\.[a-z]+`, "test@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			p := compileForTest(t, tt.pattern)
			got := execString(t, p, tt.input, nil)
			if got != tt.expected {
				t.Errorf("Exec(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.expected)
			}
		})
	}
}

// TestExec_PathologicalQuantifiers exercises inputs that make an unbounded
// backtracker exponential. The visited set explores each (instruction,
// position) pair at most once, so these finish and stay correct.
func TestExec_PathologicalQuantifiers(t *testing.T) {
	tests := []struct {
		pattern  string
		input    string
		expected bool
	}{
		{`(a|aa)*b`, strings.Repeat("a", 30), false},
		{`(a|aa)*b`, strings.Repeat("a", 30) + "b", true},
		{`(a*)*c`, strings.Repeat("a", 40), false},
		{`(a*)*c`, strings.Repeat("a", 40) + "c", true},
		{`(x+x+)+y`, strings.Repeat("x", 30), false},
		{`(x+x+)+y`, strings.Repeat("x", 30) + "y", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p := compileForTest(t, tt.pattern)
			if got := execString(t, p, tt.input, nil); got != tt.expected {
				t.Errorf("Exec(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.expected)
			}
		})
	}
}

func TestExec_CompiledSet(t *testing.T) {
	p, err := program.CompileSet([]string{`foo`, `\d+`, `^bar`})
	if err != nil {
		t.Fatalf("CompileSet failed: %v", err)
	}
	tests := []struct {
		input string
		want  []bool
	}{
		{"foo123", []bool{true, true, false}},
		{"bar", []bool{false, false, true}},
		{"xbar", []bool{false, false, false}},
		{"no digits here, no f-word", []bool{false, false, false}},
		{"42", []bool{false, true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			matched := make([]bool, 3)
			ctx := input.New([]byte(tt.input))
			Exec(p, NewCache(), matched, ctx, 0, ctx.Len())
			if diff := cmp.Diff(tt.want, matched); diff != "" {
				t.Errorf("match slots mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Programs compiled from literal alternations carry prefixes; the scan must
// resume the literal search from the current position after each failed
// attempt instead of reconsidering rejected offsets.
func TestExec_PrefixGuidedAlternation(t *testing.T) {
	p, err := program.Compile(`(?:foo|bar)\d`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if p.Prefixes().IsEmpty() {
		t.Fatal("expected literal prefixes for (?:foo|bar)\\d")
	}
	tests := []struct {
		input string
		want  bool
	}{
		{"xx foo bar7 yy", true},
		{"xx foo bar yy", false},
		{"foo1", true},
		{"", false},
		{"barfoo5", true},
	}
	for _, tt := range tests {
		if got := execString(t, p, tt.input, nil); got != tt.want {
			t.Errorf("Exec(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
