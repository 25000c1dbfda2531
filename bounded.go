// Package bounded provides a worst-case-linear-time regex matcher built on
// a bounded backtracking engine.
//
// Patterns compile to a flat instruction program which a backtracking
// engine executes with a visited-state bitset, guaranteeing
// O(len(pattern) * len(input)) time. The bitset makes memory proportional
// to that same product, so the engine only admits small programs on small
// inputs; oversized searches fail with ErrTooLarge instead of silently
// degrading (strategy selection belongs to the caller, not this package).
//
// Basic usage:
//
//	re, err := bounded.Compile(`\d+-\d+`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, err := re.IsMatch([]byte("2014-01"))
//
// Pattern sets share one search pass:
//
//	set, _ := bounded.CompileSet([]string{`foo`, `\d+`})
//	matched := make([]bool, set.NumPatterns())
//	_, _ = set.Match([]byte("foo123"), matched)
//	// matched == [true, true]
//
// A Regexp is safe for concurrent use: the compiled program is immutable
// and per-search scratch state is pooled per goroutine.
package bounded

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coregx/bounded/backtrack"
	"github.com/coregx/bounded/input"
	"github.com/coregx/bounded/program"
)

// ErrTooLarge indicates that program size times input size exceeds the
// engine's fixed memory budget. The search was not attempted.
var ErrTooLarge = errors.New("bounded: program length * input length exceeds memory budget")

// Regexp is a compiled pattern or pattern set.
type Regexp struct {
	prog     *program.Program
	patterns []string

	// caches pools per-search scratch state. A cache is checked out for
	// the duration of one search and cleared by the engine on entry.
	caches sync.Pool
}

// Compile compiles a single pattern. Syntax is Perl-compatible (same as
// stdlib regexp).
func Compile(pattern string) (*Regexp, error) {
	return CompileSet([]string{pattern})
}

// MustCompile compiles a single pattern and panics if it fails. Useful for
// patterns known valid at build time.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// CompileSet compiles several patterns into one set sharing a single search
// pass. Pattern i reports its matches in output slot i.
func CompileSet(patterns []string) (*Regexp, error) {
	prog, err := program.CompileSet(patterns)
	if err != nil {
		return nil, err
	}
	re := &Regexp{
		prog:     prog,
		patterns: append([]string(nil), patterns...),
	}
	re.caches.New = func() any {
		return backtrack.NewCache()
	}
	return re, nil
}

// NumPatterns returns the number of patterns in the set; 1 for Compile.
func (re *Regexp) NumPatterns() int {
	return re.prog.NumPatterns()
}

// Patterns returns the source patterns in slot order.
func (re *Regexp) Patterns() []string {
	return re.patterns
}

// Program returns the compiled instruction program. It is immutable and may
// be executed directly with the backtrack package.
func (re *Regexp) Program() *program.Program {
	return re.prog
}

// IsMatch reports whether any pattern in the set matches anywhere in the
// haystack. It fails with ErrTooLarge when the haystack exceeds the
// engine's admission bound for this program.
func (re *Regexp) IsMatch(haystack []byte) (bool, error) {
	return re.Match(haystack, nil)
}

// Match runs the set over the haystack. matched[slot] is set to true for
// every pattern that matched; slots beyond len(matched) are dropped and no
// slot is cleared, so callers zero the buffer between runs. The return
// value reports whether any pattern matched.
func (re *Regexp) Match(haystack []byte, matched []bool) (bool, error) {
	if !backtrack.ShouldExec(re.prog.Len(), len(haystack)) {
		return false, fmt.Errorf("%w: %d instructions over %d bytes", ErrTooLarge, re.prog.Len(), len(haystack))
	}

	cache := re.caches.Get().(*backtrack.Cache)
	defer re.caches.Put(cache)

	ctx := input.New(haystack)
	return backtrack.Exec(re.prog, cache, matched, ctx, 0, len(haystack)), nil
}
