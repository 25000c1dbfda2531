// Package program defines the compiled instruction sequence executed by the
// matching engine.
//
// A Program is a flat, append-only arena of instructions addressed by integer
// index. Branch targets are indices into the same arena, never pointers, so
// backward edges (loops compiled from * and +) need no special ownership
// handling. Programs are immutable after construction and safe to share
// across goroutines.
package program

import (
	"fmt"
	"strings"

	"github.com/coregx/bounded/literal"
)

// InstPtr is the index of an instruction in a Program.
type InstPtr = uint32

// InvalidInst marks an unpatched or unusable instruction target.
const InvalidInst InstPtr = 0xFFFFFFFF

// Op identifies the kind of an instruction.
type Op uint8

const (
	// OpMatch is a terminal state. Its slot names the Nth pattern in a
	// program compiled from a pattern set; always 0 for single patterns.
	OpMatch Op = iota

	// OpSplit diverges to one of two successor instructions. Goto1 has
	// priority over Goto2 (leftmost-first, greedy semantics).
	OpSplit

	// OpZero is a zero-width assertion. It consumes no input.
	OpZero

	// OpOne consumes one element iff it equals the instruction's rune.
	OpOne

	// OpInterval consumes one element iff it falls in the instruction's
	// closed rune range [lo, hi].
	OpInterval
)

// String returns a human-readable representation of the Op.
func (op Op) String() string {
	switch op {
	case OpMatch:
		return "Match"
	case OpSplit:
		return "Split"
	case OpZero:
		return "Zero"
	case OpOne:
		return "One"
	case OpInterval:
		return "Interval"
	default:
		return fmt.Sprintf("Unknown(%d)", op)
	}
}

// Zero identifies a zero-width assertion kind.
type Zero uint8

const (
	// ZeroAny is the unconstrained default assertion. The compiler never
	// emits it; reaching it in the matcher is an upstream bug.
	ZeroAny Zero = iota

	// ZeroStartLine matches at the start of input or just after '\n'.
	ZeroStartLine

	// ZeroEndLine matches at the end of input or just before '\n'.
	ZeroEndLine

	// ZeroStartText matches only at the start of input.
	ZeroStartText

	// ZeroEndText matches only at the end of input.
	ZeroEndText

	// ZeroWordBoundary matches where exactly one adjacent character is a
	// Unicode word character.
	ZeroWordBoundary

	// ZeroNotWordBoundary is the negation of ZeroWordBoundary.
	ZeroNotWordBoundary

	// ZeroWordBoundaryASCII is ZeroWordBoundary restricted to ASCII word
	// bytes.
	ZeroWordBoundaryASCII

	// ZeroNotWordBoundaryASCII is the negation of ZeroWordBoundaryASCII.
	ZeroNotWordBoundaryASCII
)

// String returns a human-readable representation of the assertion kind.
func (z Zero) String() string {
	switch z {
	case ZeroAny:
		return "Any"
	case ZeroStartLine:
		return "StartLine"
	case ZeroEndLine:
		return "EndLine"
	case ZeroStartText:
		return "StartText"
	case ZeroEndText:
		return "EndText"
	case ZeroWordBoundary:
		return "WordBoundary"
	case ZeroNotWordBoundary:
		return "NotWordBoundary"
	case ZeroWordBoundaryASCII:
		return "WordBoundaryASCII"
	case ZeroNotWordBoundaryASCII:
		return "NotWordBoundaryASCII"
	default:
		return fmt.Sprintf("Unknown(%d)", z)
	}
}

// Inst is a single instruction. The op determines which fields are valid.
type Inst struct {
	op Op

	// out is the successor for Split (goto1), Zero, One and Interval.
	out InstPtr

	// alt is the second successor for Split (goto2).
	alt InstPtr

	// slot is the pattern index for Match.
	slot int

	// look is the assertion kind for Zero.
	look Zero

	// lo is the rune for One, and the inclusive lower bound for Interval.
	// hi is the inclusive upper bound for Interval.
	lo, hi rune
}

// Op returns the instruction's kind.
func (i *Inst) Op() Op {
	return i.op
}

// Out returns the successor index for Split (goto1), Zero, One and Interval.
func (i *Inst) Out() InstPtr {
	return i.out
}

// Slot returns the pattern index for Match instructions.
func (i *Inst) Slot() int {
	return i.slot
}

// Split returns the two successor indices for Split instructions.
// Goto1 has priority over goto2.
func (i *Inst) Split() (goto1, goto2 InstPtr) {
	return i.out, i.alt
}

// Look returns the assertion kind for Zero instructions.
func (i *Inst) Look() Zero {
	return i.look
}

// Rune returns the rune to test for One instructions.
func (i *Inst) Rune() rune {
	return i.lo
}

// Interval returns the inclusive rune range for Interval instructions.
func (i *Inst) Interval() (lo, hi rune) {
	return i.lo, i.hi
}

// MatchesRune reports whether r satisfies a One or Interval instruction.
func (i *Inst) MatchesRune(r rune) bool {
	return i.lo <= r && r <= i.hi
}

// Program is an immutable sequence of instructions plus facts about them.
//
// It is constructed by a Builder or the Compiler and never mutated by the
// matching engines, so a single Program may be shared by many concurrent
// searches (each with its own cache).
type Program struct {
	insts []Inst

	// matches holds the index of every Match instruction. Length 1 unless
	// the program was compiled from a pattern set.
	matches []InstPtr

	start InstPtr

	// anchoredStart is true when the program can only match at the start
	// of the searched range; anchoredEnd when it can only match at the end.
	anchoredStart bool
	anchoredEnd   bool

	// prefixes finds positions where a known literal prefix could begin.
	// Never nil; empty when no mandatory prefixes exist.
	prefixes *literal.Searcher
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.insts)
}

// Inst returns the instruction at index ip.
func (p *Program) Inst(ip InstPtr) *Inst {
	return &p.insts[ip]
}

// Start returns the index of the first instruction to execute.
func (p *Program) Start() InstPtr {
	return p.start
}

// Matches returns the indices of all Match instructions, one per pattern.
func (p *Program) Matches() []InstPtr {
	return p.matches
}

// NumPatterns returns the number of patterns this program was compiled from.
func (p *Program) NumPatterns() int {
	return len(p.matches)
}

// IsAnchoredStart reports whether the program must match at the start of the
// searched range.
func (p *Program) IsAnchoredStart() bool {
	return p.anchoredStart
}

// IsAnchoredEnd reports whether the program must match at the end of input.
func (p *Program) IsAnchoredEnd() bool {
	return p.anchoredEnd
}

// Prefixes returns the literal prefix searcher. It is never nil; use
// IsEmpty to check whether any prefixes are known.
func (p *Program) Prefixes() *literal.Searcher {
	return p.prefixes
}

// String returns a multi-line listing of the program, one instruction per
// line, for debugging.
func (p *Program) String() string {
	var sb strings.Builder
	for ip := range p.insts {
		inst := &p.insts[ip]
		switch inst.op {
		case OpMatch:
			fmt.Fprintf(&sb, "%04d Match(%d)", ip, inst.slot)
		case OpSplit:
			fmt.Fprintf(&sb, "%04d Split(%d, %d)", ip, inst.out, inst.alt)
		case OpZero:
			fmt.Fprintf(&sb, "%04d %s (goto: %d)", ip, inst.look, inst.out)
		case OpOne:
			fmt.Fprintf(&sb, "%04d One(%q) (goto: %d)", ip, inst.lo, inst.out)
		case OpInterval:
			fmt.Fprintf(&sb, "%04d Interval(%q-%q) (goto: %d)", ip, inst.lo, inst.hi, inst.out)
		}
		if InstPtr(ip) == p.start {
			sb.WriteString(" (start)")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
