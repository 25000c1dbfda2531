// Package literal provides fast scanning for the literal prefixes of a
// compiled program.
//
// During unanchored search the engine uses a Searcher to jump directly to
// the next position where a known mandatory prefix occurs, skipping regions
// that cannot possibly start a match. A single literal is found with the
// stdlib's SIMD-backed substring search; multiple literals share one
// Aho-Corasick automaton.
package literal

import (
	"bytes"
	"fmt"

	"github.com/coregx/ahocorasick"
)

// Searcher finds occurrences of a fixed set of literals in a haystack.
// It is immutable after construction and safe for concurrent use.
type Searcher struct {
	lits [][]byte

	// single is set when exactly one literal exists; bytes.Index is
	// faster than the automaton for that case.
	single []byte

	// auto handles two or more literals.
	auto *ahocorasick.Automaton
}

// EmptySearcher returns a searcher with no literals. Its Find reports every
// position as a candidate; callers are expected to check IsEmpty first.
func EmptySearcher() *Searcher {
	return &Searcher{}
}

// NewSearcher builds a searcher over the given literals. Empty literals are
// dropped and duplicates removed; with no usable literals the result equals
// EmptySearcher().
func NewSearcher(lits [][]byte) (*Searcher, error) {
	var kept [][]byte
	for _, lit := range lits {
		if len(lit) == 0 {
			continue
		}
		dup := false
		for _, seen := range kept {
			if bytes.Equal(seen, lit) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, append([]byte(nil), lit...))
		}
	}

	s := &Searcher{lits: kept}
	switch len(kept) {
	case 0:
		return s, nil
	case 1:
		s.single = kept[0]
		return s, nil
	}

	builder := ahocorasick.NewBuilder()
	for _, lit := range kept {
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("literal: building automaton: %w", err)
	}
	s.auto = auto
	return s, nil
}

// IsEmpty reports whether the searcher has no literals.
func (s *Searcher) IsEmpty() bool {
	return len(s.lits) == 0
}

// Len returns the number of literals.
func (s *Searcher) Len() int {
	return len(s.lits)
}

// Literals returns the searched literals. The result must not be modified.
func (s *Searcher) Literals() [][]byte {
	return s.lits
}

// Find returns the bounds of the next literal occurrence starting at or
// after position at. An empty searcher treats every position as a
// candidate and returns (at, at, true).
func (s *Searcher) Find(haystack []byte, at int) (start, end int, ok bool) {
	if at > len(haystack) {
		return 0, 0, false
	}
	switch {
	case s.single != nil:
		i := bytes.Index(haystack[at:], s.single)
		if i < 0 {
			return 0, 0, false
		}
		return at + i, at + i + len(s.single), true
	case s.auto != nil:
		m := s.auto.Find(haystack, at)
		if m == nil {
			return 0, 0, false
		}
		return m.Start, m.End, true
	default:
		return at, at, true
	}
}
