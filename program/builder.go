package program

import (
	"github.com/coregx/bounded/internal/conv"
	"github.com/coregx/bounded/literal"
)

// Builder constructs Programs instruction by instruction using a low-level
// API. It is used by the Compiler and by tests that need precise control
// over program shape. Targets may reference instructions that have not been
// added yet; Build validates that every target is in range.
type Builder struct {
	insts         []Inst
	matches       []InstPtr
	start         InstPtr
	anchoredStart bool
	anchoredEnd   bool
	prefixes      *literal.Searcher
}

// NewBuilder creates an empty program builder.
func NewBuilder() *Builder {
	return &Builder{
		insts: make([]Inst, 0, 16),
	}
}

// Len returns the number of instructions added so far. The next instruction
// added will have this index.
func (b *Builder) Len() int {
	return len(b.insts)
}

func (b *Builder) add(inst Inst) InstPtr {
	ip := InstPtr(conv.IntToUint32(len(b.insts)))
	b.insts = append(b.insts, inst)
	return ip
}

// AddMatch adds a Match instruction for the given pattern slot and records
// it as a match point.
func (b *Builder) AddMatch(slot int) InstPtr {
	ip := b.add(Inst{op: OpMatch, slot: slot})
	b.matches = append(b.matches, ip)
	return ip
}

// AddSplit adds a Split instruction. goto1 has priority over goto2.
func (b *Builder) AddSplit(goto1, goto2 InstPtr) InstPtr {
	return b.add(Inst{op: OpSplit, out: goto1, alt: goto2})
}

// AddZero adds a zero-width assertion instruction.
func (b *Builder) AddZero(look Zero, out InstPtr) InstPtr {
	return b.add(Inst{op: OpZero, look: look, out: out})
}

// AddOne adds an instruction that consumes exactly the rune r.
func (b *Builder) AddOne(r rune, out InstPtr) InstPtr {
	return b.add(Inst{op: OpOne, lo: r, hi: r, out: out})
}

// AddInterval adds an instruction that consumes any rune in [lo, hi].
func (b *Builder) AddInterval(lo, hi rune, out InstPtr) InstPtr {
	return b.add(Inst{op: OpInterval, lo: lo, hi: hi, out: out})
}

// SetStart sets the index of the first instruction to execute.
func (b *Builder) SetStart(ip InstPtr) {
	b.start = ip
}

// SetAnchoredStart marks the program as only matching at the start of the
// searched range.
func (b *Builder) SetAnchoredStart(anchored bool) {
	b.anchoredStart = anchored
}

// SetAnchoredEnd marks the program as only matching at the end of input.
func (b *Builder) SetAnchoredEnd(anchored bool) {
	b.anchoredEnd = anchored
}

// SetPrefixes attaches a literal prefix searcher used to skip non-matching
// regions during unanchored search.
func (b *Builder) SetPrefixes(s *literal.Searcher) {
	b.prefixes = s
}

// patch sets an unfilled successor field. Used by the Compiler, which emits
// instructions before their targets are known.
func (b *Builder) patch(h hole, target InstPtr) {
	if h.alt {
		b.insts[h.ip].alt = target
	} else {
		b.insts[h.ip].out = target
	}
}

// Build validates the accumulated instructions and returns an immutable
// Program. It fails if the program is empty, has no Match instruction, or
// contains a branch target outside the instruction sequence.
func (b *Builder) Build() (*Program, error) {
	if len(b.insts) == 0 {
		return nil, &BuildError{Message: "program has no instructions", Ip: InvalidInst}
	}
	if len(b.matches) == 0 {
		return nil, &BuildError{Message: "program has no match instruction", Ip: InvalidInst}
	}
	n := InstPtr(len(b.insts))
	if b.start >= n {
		return nil, &BuildError{Message: "start index out of range", Ip: b.start}
	}
	for ip := range b.insts {
		inst := &b.insts[ip]
		switch inst.op {
		case OpMatch:
			// terminal, no successor
		case OpSplit:
			if inst.out >= n || inst.alt >= n {
				return nil, &BuildError{Message: "split target out of range", Ip: InstPtr(ip)}
			}
		default:
			if inst.out >= n {
				return nil, &BuildError{Message: "goto target out of range", Ip: InstPtr(ip)}
			}
		}
	}

	prefixes := b.prefixes
	if prefixes == nil {
		prefixes = literal.EmptySearcher()
	}

	insts := make([]Inst, len(b.insts))
	copy(insts, b.insts)
	matches := make([]InstPtr, len(b.matches))
	copy(matches, b.matches)

	return &Program{
		insts:         insts,
		matches:       matches,
		start:         b.start,
		anchoredStart: b.anchoredStart,
		anchoredEnd:   b.anchoredEnd,
		prefixes:      prefixes,
	}, nil
}
