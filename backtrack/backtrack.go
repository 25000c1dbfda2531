// Package backtrack implements a bounded backtracking matching engine for
// compiled instruction programs.
//
// The engine has the same matching power as a full NFA simulation but is
// restricted to small programs on small inputs because of its memory
// requirements. It retains worst case linear time by tracking visited
// states in a bitset: a state is keyed by (instruction index, input
// position), and once visited it is never explored again, so total work is
// O(len(program) * (len(input) + 1)).
//
// Backtracking beats thread-queue NFA simulation on small inputs because a
// single depth-first path carries no per-thread bookkeeping. Its cost does
// not scale, though: the bitset must be zeroed on every execution, which is
// proportional to program size times input size no matter how little of the
// input is actually scanned. ShouldExec gates admission accordingly; the
// selection is the caller's job and this package never falls back to
// another strategy on its own.
package backtrack

import (
	"fmt"

	"github.com/coregx/bounded/input"
	"github.com/coregx/bounded/internal/conv"
	"github.com/coregx/bounded/program"
)

const (
	// bitSize is the width of one visited-bitset word.
	bitSize = 32

	// maxSizeBytes caps the visited bitset at 256 KiB. The exact limit is
	// a heuristic: past it, zeroing the bitset dominates and other
	// engines win.
	maxSizeBytes = 256 * (1 << 10)
)

// ShouldExec returns true iff a program with numInsts instructions run over
// an input of textLen bytes fits this engine's memory budget.
//
// Total bitset usage in bytes is
//
//	((numInsts * (textLen+1) + bitSize - 1) / bitSize) * 4
//
// and must not exceed maxSizeBytes. Callers must check this before
// executing and pick another strategy when it fails.
func ShouldExec(numInsts, textLen int) bool {
	size := ((numInsts*(textLen+1) + bitSize - 1) / bitSize) * 4
	return size <= maxSizeBytes
}

// job is an explicit unit of deferred work: resume execution at instruction
// ip with the input at position at. Jobs replace native recursion so the
// engine's depth is bounded by heap, not by the goroutine stack.
type job struct {
	ip program.InstPtr
	at int
}

// Cache is the reusable scratch state of the engine: the job stack and the
// visited bitset. A Cache belongs to one goroutine at a time; concurrent
// searches over a shared Program need one Cache each. Exec clears and
// resizes it on entry, retaining allocations across invocations.
type Cache struct {
	jobs    []job
	visited []uint32
}

// NewCache creates an empty cache. The backing storage grows lazily on
// first use.
func NewCache() *Cache {
	return &Cache{}
}

// bounded is one in-flight execution of the engine.
type bounded struct {
	prog    *program.Program
	ctx     *input.Context
	matches []bool
	cache   *Cache
}

// Exec runs the backtracking engine over ctx within the half-open byte
// range [start, end) and returns whether any pattern matched.
//
// For every pattern slot that matched, matches[slot] is set to true; slots
// beyond len(matches) are silently dropped and no slot is ever cleared, so
// callers own zero-initialization of the buffer. The anchored-start case
// runs a single attempt at start; otherwise candidate positions are scanned
// up to end.
//
// Callers must have admitted the (program, input) pair via ShouldExec.
func Exec(prog *program.Program, cache *Cache, matches []bool, ctx *input.Context, start, end int) bool {
	b := &bounded{
		prog:    prog,
		ctx:     ctx,
		matches: matches,
		cache:   cache,
	}
	return b.exec(start, end)
}

// clear resets the cache for an input of fixed length: the job stack
// empties in place and the visited bitset is resized to exactly the words
// this (program, input) pair needs, reusing the allocation when it is large
// enough and growing zero-filled otherwise.
//
// Reusing a bitset sized for a different program or input length without
// this resize is unsound, so exec calls clear before anything else.
func (b *bounded) clear() {
	b.cache.jobs = b.cache.jobs[:0]

	visitedLen := (b.prog.Len()*(b.ctx.Len()+1) + bitSize - 1) / bitSize
	if cap(b.cache.visited) >= visitedLen {
		b.cache.visited = b.cache.visited[:visitedLen]
		for i := range b.cache.visited {
			b.cache.visited[i] = 0
		}
	} else {
		b.cache.visited = make([]uint32, visitedLen)
	}
}

// exec drives the top-level search: a single anchored attempt, or a scan
// over candidate start positions with literal-prefix skipping.
func (b *bounded) exec(at, end int) bool {
	b.clear()

	// An anchored program either matches at the start position or not at
	// all; one backtracking attempt decides it.
	if b.prog.IsAnchoredStart() {
		return b.backtrack(at)
	}

	matched := false
	for {
		if !b.prog.Prefixes().IsEmpty() {
			pos, ok := b.ctx.PrefixAt(b.prog.Prefixes(), at)
			if !ok {
				break
			}
			at = pos
		}
		matched = b.backtrack(at) || matched
		if matched && b.prog.NumPatterns() == 1 {
			// First matching start position wins for a single
			// pattern. A set must keep scanning: later start
			// positions may satisfy other alternatives.
			return true
		}
		if at >= end {
			break
		}
		at = b.ctx.Next(at)
	}
	return matched
}

// backtrack explores every path reachable from the start instruction at
// input position at. The explicit stack replaces recursion; most
// transitions are chased in step, and only Split's lower-priority branch is
// deferred onto the stack, so a branch's goto1 consequences are always
// exhausted before its goto2 is tried.
func (b *bounded) backtrack(at int) bool {
	matched := false
	b.cache.jobs = append(b.cache.jobs, job{ip: b.prog.Start(), at: at})
	for len(b.cache.jobs) > 0 {
		j := b.cache.jobs[len(b.cache.jobs)-1]
		b.cache.jobs = b.cache.jobs[:len(b.cache.jobs)-1]
		if b.step(j.ip, j.at) {
			if b.prog.NumPatterns() == 1 {
				// Only quit early when matching one pattern.
				// For a set, drain the stack so the other
				// alternatives can also be discovered.
				return true
			}
			matched = true
		}
	}
	return matched
}

// step executes instructions from (ip, at) until the path matches or dies.
// Chasing ip/at in place instead of pushing a job per transition is purely
// a constant-factor optimization; Split still defers its second branch.
func (b *bounded) step(ip program.InstPtr, at int) bool {
	for {
		if b.hasVisited(ip, at) {
			return false
		}
		inst := b.prog.Inst(ip)
		switch inst.Op() {
		case program.OpMatch:
			if slot := inst.Slot(); slot < len(b.matches) {
				b.matches[slot] = true
			}
			return true
		case program.OpSplit:
			goto1, goto2 := inst.Split()
			b.cache.jobs = append(b.cache.jobs, job{ip: goto2, at: at})
			ip = goto1
		case program.OpZero:
			if !b.ctx.IsEmptyMatch(at, inst.Look()) {
				return false
			}
			ip = inst.Out()
		case program.OpOne:
			r, ok := b.ctx.At(at)
			if !ok || r != inst.Rune() {
				return false
			}
			ip = inst.Out()
			at = b.ctx.Next(at)
		case program.OpInterval:
			r, ok := b.ctx.At(at)
			if !ok || !inst.MatchesRune(r) {
				return false
			}
			ip = inst.Out()
			at = b.ctx.Next(at)
		default:
			panic(fmt.Sprintf("backtrack: unknown instruction %v at %d", inst.Op(), ip))
		}
	}
}

// hasVisited checks and marks the visited bit for (ip, at). Once set, a bit
// stays set until the next top-level clear; this is the mechanism that
// bounds total work to program size times input size.
//
// The word index narrows through a checked conversion: silent wraparound
// would corrupt the visited set and with it the linear-time invariant, so an
// index past the counter width means the ShouldExec admission check was
// bypassed.
func (b *bounded) hasVisited(ip program.InstPtr, at int) bool {
	k := uint64(ip)*uint64(b.ctx.Len()+1) + uint64(at)
	k1 := conv.Uint64ToUint32(k / bitSize)
	k2 := uint32(1) << (k % bitSize)
	if b.cache.visited[k1]&k2 != 0 {
		return true
	}
	b.cache.visited[k1] |= k2
	return false
}
