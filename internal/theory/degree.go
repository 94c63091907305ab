package theory

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolveDegree returns the note at the given degree of root's scale.
//
// Degrees outside 1..7 wrap, so degree 8 is the root again. A root spelled
// with a flat yields flat spellings for every degree; any other root yields
// sharps.
func ResolveDegree(degree int, root string, mode Mode) (string, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("resolve degree: invalid mode %d", int(mode))
	}
	rootPC, err := SemitoneOf(root)
	if err != nil {
		return "", err
	}
	idx := degreeIndex(degree)
	pc := Mod12(int(rootPC) + modeOffsets[mode][idx])
	preferFlats := strings.Contains(Normalize(root), "b")
	return SpellingOf(pc, preferFlats), nil
}

func degreeIndex(degree int) int {
	return ((degree-1)%7 + 7) % 7
}

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	v := n % 100
	if v < 0 {
		v = -v
	}
	suffix := "th"
	if v < 11 || v > 13 {
		switch v % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
