package theory

import (
	"fmt"
	"math/rand/v2"
)

// NoQuestionPrompt is shown when a config leaves nothing to ask.
const NoQuestionPrompt = "No scales/modes selected"

// RootOptions are the roots a drill can be configured with.
var RootOptions = []string{"C", "C#", "Db", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// DefaultDegrees are the seven scale positions.
var DefaultDegrees = []int{1, 2, 3, 4, 5, 6, 7}

// Config is the set of allowed roots, modes and degrees. Any set may be
// empty.
type Config struct {
	Roots   []string `json:"roots" yaml:"roots"`
	Modes   []Mode   `json:"modes" yaml:"modes"`
	Degrees []int    `json:"degrees" yaml:"degrees"`
}

// DefaultConfig enables every root, both modes and degrees 1 through 7.
func DefaultConfig() Config {
	return Config{
		Roots:   append([]string(nil), RootOptions...),
		Modes:   append([]Mode(nil), Modes...),
		Degrees: append([]int(nil), DefaultDegrees...),
	}
}

// Validate rejects roots that are not recognized spellings, invalid modes
// and degrees below 1.
func (c Config) Validate() error {
	for _, r := range c.Roots {
		if _, err := SemitoneOf(r); err != nil {
			return fmt.Errorf("root: %w", err)
		}
	}
	for _, m := range c.Modes {
		if !m.Valid() {
			return fmt.Errorf("invalid mode %d", int(m))
		}
	}
	for _, d := range c.Degrees {
		if d < 1 {
			return fmt.Errorf("invalid degree %d", d)
		}
	}
	return nil
}

// Dedup returns a copy of c with repeated entries removed, keeping first
// occurrence order.
func (c Config) Dedup() Config {
	return Config{
		Roots:   dedup(c.Roots),
		Modes:   dedup(c.Modes),
		Degrees: dedup(c.Degrees),
	}
}

func dedup[T comparable](in []T) []T {
	if in == nil {
		return nil
	}
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Question is one generated drill prompt. An empty Answer marks the
// placeholder returned for an empty config.
type Question struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
	Root   string `json:"root,omitempty"`
	Mode   Mode   `json:"mode"`
	Degree int    `json:"degree,omitempty"`
}

// Empty reports whether q is the no-config placeholder.
func (q Question) Empty() bool {
	return q.Answer == ""
}

// Rand is the randomness NextQuestion draws from.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NextQuestion draws a root, a mode and a degree independently and
// uniformly from cfg. A nil rng uses the process-wide generator.
//
// Modes that are not valid are ignored. If any set is empty the
// NoQuestionPrompt placeholder is returned. An unrecognized root is
// returned as an error.
func NextQuestion(cfg Config, rng Rand) (Question, error) {
	if rng == nil {
		rng = globalRand{}
	}

	modes := make([]Mode, 0, len(cfg.Modes))
	for _, m := range cfg.Modes {
		if m.Valid() {
			modes = append(modes, m)
		}
	}
	if len(cfg.Roots) == 0 || len(modes) == 0 || len(cfg.Degrees) == 0 {
		return Question{Prompt: NoQuestionPrompt}, nil
	}

	degree := cfg.Degrees[rng.IntN(len(cfg.Degrees))]
	root := cfg.Roots[rng.IntN(len(cfg.Roots))]
	mode := modes[rng.IntN(len(modes))]

	answer, err := ResolveDegree(degree, root, mode)
	if err != nil {
		return Question{}, err
	}
	return Question{
		Prompt: fmt.Sprintf("%s degree of %s %s", Ordinal(degree), root, mode),
		Answer: answer,
		Root:   root,
		Mode:   mode,
		Degree: degree,
	}, nil
}
