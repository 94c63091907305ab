// Package theory computes scale degrees and checks note-name answers.
//
// Everything here is pure: the spelling and interval tables are fixed at
// compile time and no function keeps state between calls.
package theory

import (
	"errors"
	"fmt"
)

// ErrUnknownSpelling is returned when a note name is not one of the
// recognized natural, sharp or flat spellings.
var ErrUnknownSpelling = errors.New("unknown spelling")

// PitchClass is one of the 12 chromatic steps, 0 = C.
type PitchClass int

// Mod12 reduces any integer to a valid pitch class.
func Mod12(n int) PitchClass {
	return PitchClass(((n % 12) + 12) % 12)
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// semitones maps every spelling in either table to its pitch class.
var semitones = func() map[string]PitchClass {
	m := make(map[string]PitchClass, 17)
	for i := range sharpNames {
		m[sharpNames[i]] = PitchClass(i)
		m[flatNames[i]] = PitchClass(i)
	}
	return m
}()

// SemitoneOf looks up a spelling. The input is normalized first, so "e♭",
// " Eb " and "eb" all resolve to 3.
func SemitoneOf(spelling string) (PitchClass, error) {
	n := Normalize(spelling)
	pc, ok := semitones[n]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSpelling, spelling)
	}
	return pc, nil
}

// SpellingOf returns the sharp-side or flat-side name of pc.
func SpellingOf(pc PitchClass, preferFlats bool) string {
	pc = Mod12(int(pc))
	if preferFlats {
		return flatNames[pc]
	}
	return sharpNames[pc]
}

// IsSpelling reports whether s, exactly as written, is a recognized spelling.
func IsSpelling(s string) bool {
	_, ok := semitones[s]
	return ok
}

func (pc PitchClass) String() string {
	return SpellingOf(pc, false)
}
