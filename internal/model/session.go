package model

import "time"

// DrillSession is one learner's practice run. It lives in Redis only.
type DrillSession struct {
	ID         string      `json:"id"`
	PresetCode string      `json:"presetCode,omitempty"` // empty for ad-hoc drills
	Config     DrillConfig `json:"config"`
	StartedAt  time.Time   `json:"startedAt"`
}
