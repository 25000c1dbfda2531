package program_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/bounded/program"
)

func TestCompile_AnchorDetection(t *testing.T) {
	tests := []struct {
		pattern       string
		anchoredStart bool
		anchoredEnd   bool
	}{
		{"foo", false, false},
		{"^foo", true, false},
		{"foo$", false, true},
		{"^foo$", true, true},
		{`\Afoo\z`, true, true},
		{"(^foo)", true, false},
		{"^foo|^bar", true, false},
		// One unanchored alternative makes the whole pattern unanchored.
		{"^foo|bar", false, false},
		{"foo$|bar$", false, true},
		// (?m)^ matches at line starts, not only at the input start.
		{"(?m)^foo", false, false},
		{"(?m)foo$", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := program.Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", tt.pattern, err)
			}
			if got := p.IsAnchoredStart(); got != tt.anchoredStart {
				t.Errorf("IsAnchoredStart() = %v, want %v", got, tt.anchoredStart)
			}
			if got := p.IsAnchoredEnd(); got != tt.anchoredEnd {
				t.Errorf("IsAnchoredEnd() = %v, want %v", got, tt.anchoredEnd)
			}
		})
	}
}

func TestCompile_SetAnchorDetection(t *testing.T) {
	p, err := program.CompileSet([]string{"^foo", "^bar"})
	if err != nil {
		t.Fatalf("CompileSet failed: %v", err)
	}
	if !p.IsAnchoredStart() {
		t.Error("set of start-anchored patterns not reported anchored")
	}

	p, err = program.CompileSet([]string{"^foo", "bar"})
	if err != nil {
		t.Fatalf("CompileSet failed: %v", err)
	}
	if p.IsAnchoredStart() {
		t.Error("mixed set reported start-anchored")
	}
}

func TestCompile_PrefixExtraction(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"hello", []string{"hello"}},
		{"foo|bar", []string{"foo", "bar"}},
		{`(?:foo|bar)\d`, []string{"foo", "bar"}},
		{"(abc)def", []string{"abc"}},
		{"[ab]c", []string{"a", "b"}},
		{`a+b`, []string{"a"}},
		{`\bfoo`, []string{"foo"}},
		// No mandatory prefix is known for these.
		{`\d+`, nil},
		{"a*b", nil},
		{"(?i)foo", nil},
		{"foo|[0-9]+", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := program.Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", tt.pattern, err)
			}
			var got []string
			for _, lit := range p.Prefixes().Literals() {
				got = append(got, string(lit))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("prefix literals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_AnchoredProgramsSkipPrefixes(t *testing.T) {
	p, err := program.Compile("^hello")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !p.Prefixes().IsEmpty() {
		t.Error("anchored program carries prefix literals")
	}
}

func TestCompile_PrefixTruncation(t *testing.T) {
	c := program.NewCompiler(program.Config{MaxPrefixLen: 4})
	p, err := c.Compile("abcdefgh")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	lits := p.Prefixes().Literals()
	if len(lits) != 1 || string(lits[0]) != "abcd" {
		t.Errorf("Literals() = %q, want [\"abcd\"]", lits)
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Run("invalid pattern", func(t *testing.T) {
		_, err := program.Compile("(unclosed")
		var ce *program.CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("Compile error = %v, want *CompileError", err)
		}
		if ce.Pattern != "(unclosed" {
			t.Errorf("CompileError.Pattern = %q, want the failing pattern", ce.Pattern)
		}
	})

	t.Run("no patterns", func(t *testing.T) {
		_, err := program.CompileSet(nil)
		if !errors.Is(err, program.ErrNoPatterns) {
			t.Fatalf("CompileSet(nil) error = %v, want ErrNoPatterns", err)
		}
	})

	t.Run("too many instructions", func(t *testing.T) {
		// A long literal is a single parse node; the limit must trip on
		// emitted instructions, not on visited nodes.
		c := program.NewCompiler(program.Config{MaxInsts: 4})
		_, err := c.Compile("abcdefgh")
		if !errors.Is(err, program.ErrTooComplex) {
			t.Fatalf("Compile error = %v, want ErrTooComplex", err)
		}
	})

	t.Run("wide class exceeds limit", func(t *testing.T) {
		// One character class node expands to an interval per range.
		c := program.NewCompiler(program.Config{MaxInsts: 4})
		_, err := c.Compile(`\pL`)
		if !errors.Is(err, program.ErrTooComplex) {
			t.Fatalf("Compile error = %v, want ErrTooComplex", err)
		}
	})

	t.Run("factored alternation fits", func(t *testing.T) {
		// The parser folds single-rune alternatives into one class, so
		// this is two instructions and compiles under a tight limit.
		c := program.NewCompiler(program.Config{MaxInsts: 4})
		if _, err := c.Compile("a|b|c|d|e|f|g|h"); err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
	})

	t.Run("alternation of literals exceeds limit", func(t *testing.T) {
		c := program.NewCompiler(program.Config{MaxInsts: 4})
		_, err := c.Compile("foo|bar|baz")
		if !errors.Is(err, program.ErrTooComplex) {
			t.Fatalf("Compile error = %v, want ErrTooComplex", err)
		}
	})

	t.Run("recursion depth exceeded", func(t *testing.T) {
		c := program.NewCompiler(program.Config{MaxRecursionDepth: 3})
		_, err := c.Compile("((((a))))")
		if !errors.Is(err, program.ErrTooComplex) {
			t.Fatalf("Compile error = %v, want ErrTooComplex", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		c := program.NewCompiler(program.Config{MaxInsts: -1})
		_, err := c.Compile("a")
		if !errors.Is(err, program.ErrInvalidConfig) {
			t.Fatalf("Compile error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestMustCompile_PanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic on an invalid pattern")
		}
	}()
	program.MustCompile("(unclosed")
}

func TestCompileSet_SlotCount(t *testing.T) {
	p, err := program.CompileSet([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("CompileSet failed: %v", err)
	}
	if got := p.NumPatterns(); got != 3 {
		t.Errorf("NumPatterns() = %d, want 3", got)
	}
	if got := len(p.Matches()); got != 3 {
		t.Errorf("len(Matches()) = %d, want 3", got)
	}
}
