// Package input provides the positional input abstraction consumed by the
// matching engine.
//
// A Context wraps a byte haystack. Positions are byte offsets in 0..len;
// elements are the UTF-8 decoded runes starting at those offsets. Position
// len is the end-of-input boundary, where no element exists but zero-width
// assertions may still hold.
package input

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/bounded/literal"
	"github.com/coregx/bounded/program"
)

// Context is a read-only positional view of a haystack. It is safe to share
// across goroutines.
type Context struct {
	haystack []byte
}

// New creates a context over the given haystack.
func New(haystack []byte) *Context {
	return &Context{haystack: haystack}
}

// Haystack returns the underlying bytes. The result must not be modified.
func (c *Context) Haystack() []byte {
	return c.haystack
}

// Len returns the haystack length in bytes. Valid positions range over
// 0..Len() inclusive.
func (c *Context) Len() int {
	return len(c.haystack)
}

// At returns the rune starting at position at. ok is false at or past the
// end-of-input boundary. Invalid UTF-8 decodes to utf8.RuneError with a
// width of one byte.
func (c *Context) At(at int) (r rune, ok bool) {
	if at >= len(c.haystack) {
		return 0, false
	}
	r, _ = utf8.DecodeRune(c.haystack[at:])
	return r, true
}

// Next returns the position one element after at. It must only be called
// with at < Len().
func (c *Context) Next(at int) int {
	_, width := utf8.DecodeRune(c.haystack[at:])
	if width == 0 {
		width = 1
	}
	return at + width
}

// PrefixAt scans for the next position at or after at where one of the
// searcher's literal prefixes begins. ok is false when no further candidate
// exists.
func (c *Context) PrefixAt(prefixes *literal.Searcher, at int) (pos int, ok bool) {
	start, _, ok := prefixes.Find(c.haystack, at)
	if !ok {
		return 0, false
	}
	return start, true
}

// IsEmptyMatch reports whether the zero-width assertion look holds at
// position at.
//
// program.ZeroAny is a compiler-internal placeholder that must never reach
// the matcher; encountering it here is a fatal contract violation and
// panics rather than inventing matching semantics.
func (c *Context) IsEmptyMatch(at int, look program.Zero) bool {
	switch look {
	case program.ZeroStartText:
		return at == 0
	case program.ZeroEndText:
		return at == len(c.haystack)
	case program.ZeroStartLine:
		return at == 0 || c.haystack[at-1] == '\n'
	case program.ZeroEndLine:
		return at == len(c.haystack) || c.haystack[at] == '\n'
	case program.ZeroWordBoundary:
		return c.isWordRuneBefore(at) != c.isWordRuneAt(at)
	case program.ZeroNotWordBoundary:
		return c.isWordRuneBefore(at) == c.isWordRuneAt(at)
	case program.ZeroWordBoundaryASCII:
		return c.isWordByteBefore(at) != c.isWordByteAt(at)
	case program.ZeroNotWordBoundaryASCII:
		return c.isWordByteBefore(at) == c.isWordByteAt(at)
	default:
		panic(fmt.Sprintf("input: assertion %v must not reach the matcher", look))
	}
}

// isWordRuneBefore reports whether the rune ending at position at is a word
// character. The boundary positions have no adjacent rune and report false.
func (c *Context) isWordRuneBefore(at int) bool {
	if at <= 0 || at > len(c.haystack) {
		return false
	}
	r, _ := utf8.DecodeLastRune(c.haystack[:at])
	return isWordRune(r)
}

func (c *Context) isWordRuneAt(at int) bool {
	if at < 0 || at >= len(c.haystack) {
		return false
	}
	r, _ := utf8.DecodeRune(c.haystack[at:])
	return isWordRune(r)
}

func (c *Context) isWordByteBefore(at int) bool {
	return at > 0 && at <= len(c.haystack) && isWordByte(c.haystack[at-1])
}

func (c *Context) isWordByteAt(at int) bool {
	return at >= 0 && at < len(c.haystack) && isWordByte(c.haystack[at])
}

// isWordRune reports whether r is a Unicode word character: a letter, a
// number, or underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isWordByte reports whether b is an ASCII word byte: [0-9A-Za-z_].
func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('A' <= b && b <= 'Z') ||
		('a' <= b && b <= 'z')
}
