package session

import (
	"strings"
	"unicode"
)

// MaskWord renders word for a guesser: every non-space rune is "_" unless its
// index is revealed, in which case it is shown upper-cased. The drawer sees the
// whole word upper-cased. Spaces are kept as gaps.
func MaskWord(word string, revealed map[int]bool, isDrawer bool) string {
	if isDrawer {
		return strings.ToUpper(word)
	}
	var b strings.Builder
	for i, r := range []rune(word) {
		switch {
		case r == ' ':
			b.WriteRune(' ')
		case revealed[i]:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// HintOffsets returns the remaining-time values at which a letter is
// revealed. The draw time is split into hints+1 floor-sized segments and a
// reveal fires once the clock has crossed each interior boundary.
func HintOffsets(drawTime, hints int) []int {
	if hints <= 0 || drawTime <= 0 {
		return nil
	}
	seg := drawTime / (hints + 1)
	out := make([]int, 0, hints)
	for k := 1; k <= hints; k++ {
		if at := drawTime - k*seg - 1; at > 0 {
			out = append(out, at)
		}
	}
	return out
}

// letterIndices lists the rune indices of word that can be revealed.
func letterIndices(word string) []int {
	var idx []int
	for i, r := range []rune(word) {
		if r != ' ' {
			idx = append(idx, i)
		}
	}
	return idx
}
