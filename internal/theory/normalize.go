package theory

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var accidentalReplacer = strings.NewReplacer("♯", "#", "♭", "b")

// Normalize turns free text into letter + at most one accidental.
//
// All whitespace is removed, the first character is uppercased, ♯/♭ become
// #/b, and only the first character after the letter is considered as an
// accidental. Everything else is dropped. The letter is not validated, and
// an empty result means no answer was given.
func Normalize(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(s)
	letter := string(unicode.ToUpper(first))

	rest := accidentalReplacer.Replace(s[size:])
	switch {
	case strings.HasPrefix(rest, "#"):
		return letter + "#"
	case strings.HasPrefix(rest, "b"), strings.HasPrefix(rest, "B"):
		return letter + "b"
	}
	return letter
}
