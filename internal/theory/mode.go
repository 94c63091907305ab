package theory

import (
	"fmt"
	"strings"
)

// Mode is a seven-note interval pattern applied to a root.
type Mode int

const (
	Major Mode = iota
	NaturalMinor
	modeCount
)

// Modes lists every supported mode in display order.
var Modes = []Mode{Major, NaturalMinor}

var modeOffsets = [modeCount][7]int{
	Major:        {0, 2, 4, 5, 7, 9, 11},
	NaturalMinor: {0, 2, 3, 5, 7, 8, 10},
}

var modeNames = [modeCount]string{
	Major:        "Major",
	NaturalMinor: "Minor",
}

var modeKeys = [modeCount]string{
	Major:        "major",
	NaturalMinor: "minor",
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < modeCount
}

// Offsets returns the semitone offset of each degree from the root.
func (m Mode) Offsets() [7]int {
	if !m.Valid() {
		return [7]int{}
	}
	return modeOffsets[m]
}

// String returns the label used in prompt text.
func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts "major", "minor" and "natural_minor" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, nil
	case "minor", "natural_minor", "naturalminor", "natural minor":
		return NaturalMinor, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(modeKeys[m]), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
