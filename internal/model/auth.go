package model

import "github.com/golang-jwt/jwt/v5"

// HostClaims are JWT claims for host authentication
type HostClaims struct {
	HostID string `json:"hostId"`
	jwt.RegisteredClaims
}

// DrillClaims are JWT claims scoped to one drill session
type DrillClaims struct {
	SessionID  string `json:"sessionId"`
	PresetCode string `json:"presetCode,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for host login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token  string `json:"token"`
	HostID string `json:"hostId"`
}

// StartDrillRequest starts a drill from a preset, an inline config, or the
// server defaults when both are empty
type StartDrillRequest struct {
	PresetCode string       `json:"presetCode,omitempty"`
	Config     *DrillConfig `json:"config,omitempty"`
}

// StartDrillResponse is returned when a drill session starts
type StartDrillResponse struct {
	SessionID string        `json:"sessionId"`
	Token     string        `json:"token"`
	Config    DrillConfig   `json:"config"`
	Question  *QuestionView `json:"question"`
}
