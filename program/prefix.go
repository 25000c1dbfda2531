package program

import (
	"bytes"
	"regexp/syntax"
	"unicode/utf8"
)

// setPrefixLiterals extracts literal prefixes shared by a whole pattern set.
// Every pattern must contribute at least one mandatory prefix, otherwise
// skipping candidate positions would be unsound and nil is returned.
func (c *Compiler) setPrefixLiterals(res []*syntax.Regexp) [][]byte {
	var all [][]byte
	for _, re := range res {
		lits := c.prefixLiterals(re)
		if len(lits) == 0 {
			return nil
		}
		all = append(all, lits...)
		if len(all) > c.config.MaxPrefixLiterals {
			return nil
		}
	}
	return dedupeLiterals(all)
}

// prefixLiterals returns the exact literals one of which every match of re
// must start with, or nil when no such finite set is known. Truncated
// literals are fine: a prefix of a mandatory prefix is still mandatory.
func (c *Compiler) prefixLiterals(re *syntax.Regexp) [][]byte {
	switch re.Op {
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase != 0 || len(re.Rune) == 0 {
			return nil
		}
		lit := runesToBytes(re.Rune, c.config.MaxPrefixLen)
		if len(lit) == 0 {
			return nil
		}
		return [][]byte{lit}

	case syntax.OpCharClass:
		// Expand only tiny classes; anything wider is cheaper to scan
		// with the engine itself.
		var lits [][]byte
		for i := 0; i+1 < len(re.Rune); i += 2 {
			lo, hi := re.Rune[i], re.Rune[i+1]
			if hi-lo >= 4 || len(lits)+int(hi-lo)+1 > 8 {
				return nil
			}
			for r := lo; r <= hi; r++ {
				lits = append(lits, runesToBytes([]rune{r}, c.config.MaxPrefixLen))
			}
		}
		return lits

	case syntax.OpCapture:
		return c.prefixLiterals(re.Sub[0])

	case syntax.OpPlus:
		// At least one occurrence of the sub-expression is mandatory.
		return c.prefixLiterals(re.Sub[0])

	case syntax.OpConcat:
		// Prefixes of the first consuming element. Leading zero-width
		// assertions are skipped: any match still starts, in terms of
		// consumed input, with the element that follows them.
		for _, sub := range re.Sub {
			if isZeroWidth(sub) {
				continue
			}
			return c.prefixLiterals(sub)
		}
		return nil

	case syntax.OpAlternate:
		var all [][]byte
		for _, sub := range re.Sub {
			lits := c.prefixLiterals(sub)
			if len(lits) == 0 {
				return nil
			}
			all = append(all, lits...)
			if len(all) > c.config.MaxPrefixLiterals {
				return nil
			}
		}
		return all

	default:
		return nil
	}
}

func isZeroWidth(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	return false
}

func runesToBytes(runes []rune, maxLen int) []byte {
	var buf []byte
	for _, r := range runes {
		var enc [utf8.UTFMax]byte
		n := utf8.EncodeRune(enc[:], r)
		if len(buf)+n > maxLen {
			break
		}
		buf = append(buf, enc[:n]...)
	}
	return buf
}

func dedupeLiterals(lits [][]byte) [][]byte {
	out := lits[:0]
	for _, lit := range lits {
		dup := false
		for _, seen := range out {
			if bytes.Equal(seen, lit) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, lit)
		}
	}
	return out
}
