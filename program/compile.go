package program

import (
	"fmt"
	"regexp/syntax"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/bounded/literal"
)

// Config configures pattern compilation.
type Config struct {
	// MaxInsts limits the number of instructions a program may contain.
	// Compilation fails with ErrTooComplex beyond it.
	// Default: 10000
	MaxInsts int

	// MaxRecursionDepth limits recursion while walking the parse tree.
	// Default: 100
	MaxRecursionDepth int

	// MaxPrefixLiterals caps how many distinct literal prefixes are
	// extracted for unanchored search acceleration.
	// Default: 64
	MaxPrefixLiterals int

	// MaxPrefixLen caps the length in bytes of each extracted prefix.
	// Default: 16
	MaxPrefixLen int
}

// DefaultConfig returns a compiler configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxInsts:          10000,
		MaxRecursionDepth: 100,
		MaxPrefixLiterals: 64,
		MaxPrefixLen:      16,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxInsts < 0 || c.MaxRecursionDepth < 0 {
		return fmt.Errorf("%w: limits must be non-negative", ErrInvalidConfig)
	}
	if c.MaxPrefixLiterals < 0 || c.MaxPrefixLen < 0 {
		return fmt.Errorf("%w: prefix limits must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Compiler compiles regexp/syntax parse trees into Programs.
//
// The instruction set has no capture or epsilon instructions: groups compile
// transparently and sequencing is expressed by direct goto targets, so
// programs stay small. Syntax is Perl-compatible (same as stdlib regexp).
type Compiler struct {
	config Config
	b      *Builder
	depth  int
}

// NewCompiler creates a compiler with the given configuration. Zero limits
// are replaced with defaults.
func NewCompiler(config Config) *Compiler {
	def := DefaultConfig()
	if config.MaxInsts == 0 {
		config.MaxInsts = def.MaxInsts
	}
	if config.MaxRecursionDepth == 0 {
		config.MaxRecursionDepth = def.MaxRecursionDepth
	}
	if config.MaxPrefixLiterals == 0 {
		config.MaxPrefixLiterals = def.MaxPrefixLiterals
	}
	if config.MaxPrefixLen == 0 {
		config.MaxPrefixLen = def.MaxPrefixLen
	}
	return &Compiler{config: config}
}

// Compile compiles a single pattern with the default configuration.
func Compile(pattern string) (*Program, error) {
	return NewCompiler(DefaultConfig()).Compile(pattern)
}

// MustCompile compiles a single pattern and panics if it fails.
func MustCompile(pattern string) *Program {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileSet compiles a pattern set with the default configuration.
func CompileSet(patterns []string) (*Program, error) {
	return NewCompiler(DefaultConfig()).CompileSet(patterns)
}

// Compile compiles a single pattern into a Program with one Match slot.
func (c *Compiler) Compile(pattern string) (*Program, error) {
	return c.CompileSet([]string{pattern})
}

// CompileSet compiles several alternative patterns into one Program sharing
// a single search pass. Pattern i terminates in Match slot i. Earlier
// patterns have branch priority over later ones.
func (c *Compiler) CompileSet(patterns []string) (*Program, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, &CompileError{Err: ErrNoPatterns}
	}

	res := make([]*syntax.Regexp, len(patterns))
	for i, pattern := range patterns {
		re, err := syntax.Parse(pattern, syntax.Perl)
		if err != nil {
			return nil, &CompileError{Pattern: pattern, Err: err}
		}
		res[i] = re.Simplify()
	}

	c.b = NewBuilder()
	c.depth = 0

	frags := make([]frag, len(res))
	for i, re := range res {
		f, err := c.compile(re)
		if err == nil {
			err = c.checkSize()
		}
		if err != nil {
			if ce, ok := err.(*CompileError); ok && ce.Pattern == "" {
				ce.Pattern = patterns[i]
			}
			return nil, err
		}
		match := c.b.AddMatch(i)
		c.fill(f.out, match)
		frags[i] = f
	}

	// Chain alternatives with Split, pattern 0 getting highest priority.
	start := frags[len(frags)-1].start
	for i := len(frags) - 2; i >= 0; i-- {
		start = c.b.AddSplit(frags[i].start, start)
	}
	c.b.SetStart(start)

	anchoredStart := true
	anchoredEnd := true
	for _, re := range res {
		anchoredStart = anchoredStart && isAnchoredStart(re)
		anchoredEnd = anchoredEnd && isAnchoredEnd(re)
	}
	c.b.SetAnchoredStart(anchoredStart)
	c.b.SetAnchoredEnd(anchoredEnd)

	// Literal prefixes only help unanchored search; anchored programs
	// run a single attempt and never consult them.
	if !anchoredStart {
		if lits := c.setPrefixLiterals(res); len(lits) > 0 {
			s, err := literal.NewSearcher(lits)
			if err != nil {
				return nil, &CompileError{Err: err}
			}
			c.b.SetPrefixes(s)
		}
	}

	return c.b.Build()
}

// hole is an unfilled successor field of an emitted instruction: the alt
// flag selects Split's goto2 over the common goto field.
type hole struct {
	ip  InstPtr
	alt bool
}

// frag is a compiled subexpression: its entry instruction plus the dangling
// successor fields to patch with whatever follows it.
type frag struct {
	start InstPtr
	out   []hole
}

// fill patches every dangling successor to the given target.
func (c *Compiler) fill(holes []hole, target InstPtr) {
	for _, h := range holes {
		c.b.patch(h, target)
	}
}

// checkSize fails compilation once the emitted program exceeds MaxInsts. It
// runs on node entry and again inside the emission loops of nodes that expand
// into many instructions, so a single wide literal or character class cannot
// overshoot the limit unchecked.
func (c *Compiler) checkSize() error {
	if c.b.Len() > c.config.MaxInsts {
		return &CompileError{Err: ErrTooComplex}
	}
	return nil
}

func (c *Compiler) compile(re *syntax.Regexp) (frag, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.config.MaxRecursionDepth {
		return frag{}, &CompileError{Err: ErrTooComplex}
	}
	if err := c.checkSize(); err != nil {
		return frag{}, err
	}

	switch re.Op {
	case syntax.OpEmptyMatch:
		return c.compileEmpty(), nil
	case syntax.OpLiteral:
		return c.compileLiteral(re.Rune, re.Flags&syntax.FoldCase != 0)
	case syntax.OpCharClass:
		return c.compileClass(re.Rune)
	case syntax.OpAnyChar:
		ip := c.b.AddInterval(0, utf8.MaxRune, InvalidInst)
		return frag{start: ip, out: []hole{{ip: ip}}}, nil
	case syntax.OpAnyCharNotNL:
		return c.compileClass([]rune{0, '\n' - 1, '\n' + 1, utf8.MaxRune})
	case syntax.OpBeginLine:
		return c.compileZero(ZeroStartLine), nil
	case syntax.OpEndLine:
		return c.compileZero(ZeroEndLine), nil
	case syntax.OpBeginText:
		return c.compileZero(ZeroStartText), nil
	case syntax.OpEndText:
		return c.compileZero(ZeroEndText), nil
	case syntax.OpWordBoundary:
		return c.compileZero(ZeroWordBoundary), nil
	case syntax.OpNoWordBoundary:
		return c.compileZero(ZeroNotWordBoundary), nil
	case syntax.OpCapture:
		// The engine reports match/no-match only; groups are transparent.
		return c.compile(re.Sub[0])
	case syntax.OpConcat:
		return c.compileConcat(re.Sub)
	case syntax.OpAlternate:
		return c.compileAlternate(re.Sub)
	case syntax.OpStar:
		return c.compileStar(re.Sub[0], re.Flags&syntax.NonGreedy != 0)
	case syntax.OpPlus:
		return c.compilePlus(re.Sub[0], re.Flags&syntax.NonGreedy != 0)
	case syntax.OpQuest:
		return c.compileQuest(re.Sub[0], re.Flags&syntax.NonGreedy != 0)
	case syntax.OpNoMatch:
		// One(-1) can never equal a decoded rune.
		ip := c.b.AddOne(-1, InvalidInst)
		return frag{start: ip, out: []hole{{ip: ip}}}, nil
	default:
		return frag{}, &CompileError{
			Err: fmt.Errorf("%w: unsupported operation %v", ErrInvalidPattern, re.Op),
		}
	}
}

// compileEmpty emits a Split whose branches both lead to the successor. The
// engine's visited set prunes the redundant pushed branch on first contact,
// so the only cost is one instruction.
func (c *Compiler) compileEmpty() frag {
	ip := c.b.AddSplit(InvalidInst, InvalidInst)
	return frag{start: ip, out: []hole{{ip: ip}, {ip: ip, alt: true}}}
}

func (c *Compiler) compileZero(look Zero) frag {
	ip := c.b.AddZero(look, InvalidInst)
	return frag{start: ip, out: []hole{{ip: ip}}}
}

func (c *Compiler) compileLiteral(runes []rune, foldCase bool) (frag, error) {
	if len(runes) == 0 {
		return c.compileEmpty(), nil
	}
	var acc frag
	for i, r := range runes {
		if err := c.checkSize(); err != nil {
			return frag{}, err
		}
		var f frag
		if foldCase {
			f = c.compileFoldedRune(r)
		} else {
			ip := c.b.AddOne(r, InvalidInst)
			f = frag{start: ip, out: []hole{{ip: ip}}}
		}
		if i == 0 {
			acc = f
		} else {
			c.fill(acc.out, f.start)
			acc = frag{start: acc.start, out: f.out}
		}
	}
	return acc, nil
}

// compileFoldedRune emits an alternation over the simple case folds of r.
func (c *Compiler) compileFoldedRune(r rune) frag {
	folds := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		folds = append(folds, f)
	}
	if len(folds) == 1 {
		ip := c.b.AddOne(r, InvalidInst)
		return frag{start: ip, out: []hole{{ip: ip}}}
	}

	out := make([]hole, 0, len(folds))
	ips := make([]InstPtr, len(folds))
	for i, f := range folds {
		ips[i] = c.b.AddOne(f, InvalidInst)
		out = append(out, hole{ip: ips[i]})
	}
	start := ips[len(ips)-1]
	for i := len(ips) - 2; i >= 0; i-- {
		start = c.b.AddSplit(ips[i], start)
	}
	return frag{start: start, out: out}
}

// compileClass emits a Split chain over the class's inclusive rune ranges.
// ranges come in [lo0, hi0, lo1, hi1, ...] order as in syntax.Regexp.Rune.
func (c *Compiler) compileClass(ranges []rune) (frag, error) {
	if len(ranges) == 0 {
		ip := c.b.AddOne(-1, InvalidInst)
		return frag{start: ip, out: []hole{{ip: ip}}}, nil
	}

	var out []hole
	ips := make([]InstPtr, 0, len(ranges)/2)
	for i := 0; i+1 < len(ranges); i += 2 {
		if err := c.checkSize(); err != nil {
			return frag{}, err
		}
		ip := c.b.AddInterval(ranges[i], ranges[i+1], InvalidInst)
		ips = append(ips, ip)
		out = append(out, hole{ip: ip})
	}
	start := ips[len(ips)-1]
	for i := len(ips) - 2; i >= 0; i-- {
		start = c.b.AddSplit(ips[i], start)
	}
	return frag{start: start, out: out}, nil
}

func (c *Compiler) compileConcat(subs []*syntax.Regexp) (frag, error) {
	if len(subs) == 0 {
		return c.compileEmpty(), nil
	}
	var acc frag
	for i, sub := range subs {
		f, err := c.compile(sub)
		if err != nil {
			return frag{}, err
		}
		if i == 0 {
			acc = f
		} else {
			c.fill(acc.out, f.start)
			acc = frag{start: acc.start, out: f.out}
		}
	}
	return acc, nil
}

func (c *Compiler) compileAlternate(subs []*syntax.Regexp) (frag, error) {
	if len(subs) == 0 {
		return c.compileEmpty(), nil
	}
	frags := make([]frag, len(subs))
	var out []hole
	for i, sub := range subs {
		f, err := c.compile(sub)
		if err != nil {
			return frag{}, err
		}
		frags[i] = f
		out = append(out, f.out...)
	}
	start := frags[len(frags)-1].start
	for i := len(frags) - 2; i >= 0; i-- {
		start = c.b.AddSplit(frags[i].start, start)
	}
	return frag{start: start, out: out}, nil
}

func (c *Compiler) compileStar(sub *syntax.Regexp, nonGreedy bool) (frag, error) {
	sp := c.b.AddSplit(InvalidInst, InvalidInst)
	f, err := c.compile(sub)
	if err != nil {
		return frag{}, err
	}
	c.fill(f.out, sp)
	if nonGreedy {
		c.b.patch(hole{ip: sp, alt: true}, f.start)
		return frag{start: sp, out: []hole{{ip: sp}}}, nil
	}
	c.b.patch(hole{ip: sp}, f.start)
	return frag{start: sp, out: []hole{{ip: sp, alt: true}}}, nil
}

func (c *Compiler) compilePlus(sub *syntax.Regexp, nonGreedy bool) (frag, error) {
	f, err := c.compile(sub)
	if err != nil {
		return frag{}, err
	}
	sp := c.b.AddSplit(InvalidInst, InvalidInst)
	c.fill(f.out, sp)
	if nonGreedy {
		c.b.patch(hole{ip: sp, alt: true}, f.start)
		return frag{start: f.start, out: []hole{{ip: sp}}}, nil
	}
	c.b.patch(hole{ip: sp}, f.start)
	return frag{start: f.start, out: []hole{{ip: sp, alt: true}}}, nil
}

func (c *Compiler) compileQuest(sub *syntax.Regexp, nonGreedy bool) (frag, error) {
	sp := c.b.AddSplit(InvalidInst, InvalidInst)
	f, err := c.compile(sub)
	if err != nil {
		return frag{}, err
	}
	if nonGreedy {
		c.b.patch(hole{ip: sp, alt: true}, f.start)
		return frag{start: sp, out: append(f.out, hole{ip: sp})}, nil
	}
	c.b.patch(hole{ip: sp}, f.start)
	return frag{start: sp, out: append(f.out, hole{ip: sp, alt: true})}, nil
}

// isAnchoredStart reports whether every match of re must begin at the start
// of the input.
func isAnchoredStart(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginText:
		return true
	case syntax.OpCapture:
		return isAnchoredStart(re.Sub[0])
	case syntax.OpConcat:
		return len(re.Sub) > 0 && isAnchoredStart(re.Sub[0])
	case syntax.OpAlternate:
		if len(re.Sub) == 0 {
			return false
		}
		for _, sub := range re.Sub {
			if !isAnchoredStart(sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// isAnchoredEnd reports whether every match of re must end at the end of
// the input.
func isAnchoredEnd(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEndText:
		return true
	case syntax.OpCapture:
		return isAnchoredEnd(re.Sub[0])
	case syntax.OpConcat:
		return len(re.Sub) > 0 && isAnchoredEnd(re.Sub[len(re.Sub)-1])
	case syntax.OpAlternate:
		if len(re.Sub) == 0 {
			return false
		}
		for _, sub := range re.Sub {
			if !isAnchoredEnd(sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
