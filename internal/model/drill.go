package model

import (
	"scaledrill/internal/theory"
)

// DrillConfig is the stored and wire form of a constraint configuration
type DrillConfig struct {
	Roots   []string `json:"roots" bson:"roots"`
	Modes   []string `json:"modes" bson:"modes"`     // "major", "minor"
	Degrees []int    `json:"degrees" bson:"degrees"` // 1-based, usually 1..7
}

// Theory converts the config for the scale engine. Roots are normalized,
// so "bb" and "Bb" are the same entry. Unknown mode names and roots are
// rejected.
func (c DrillConfig) Theory() (theory.Config, error) {
	cfg := theory.Config{
		Degrees: append([]int(nil), c.Degrees...),
	}
	for _, r := range c.Roots {
		cfg.Roots = append(cfg.Roots, theory.Normalize(r))
	}
	for _, name := range c.Modes {
		m, err := theory.ParseMode(name)
		if err != nil {
			return theory.Config{}, err
		}
		cfg.Modes = append(cfg.Modes, m)
	}
	cfg = cfg.Dedup()
	if err := cfg.Validate(); err != nil {
		return theory.Config{}, err
	}
	return cfg, nil
}

// NewDrillConfig builds the wire form from an engine config
func NewDrillConfig(cfg theory.Config) DrillConfig {
	out := DrillConfig{
		Roots:   append([]string{}, cfg.Roots...),
		Modes:   make([]string, 0, len(cfg.Modes)),
		Degrees: append([]int{}, cfg.Degrees...),
	}
	for _, m := range cfg.Modes {
		b, err := m.MarshalText()
		if err != nil {
			continue
		}
		out.Modes = append(out.Modes, string(b))
	}
	return out
}

// OptionsResponse lists everything a drill can be configured with
type OptionsResponse struct {
	Roots   []string `json:"roots"`
	Modes   []string `json:"modes"`
	Degrees []int    `json:"degrees"`
}
