package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	BroadcastToPreset(presetCode string, msgType string, payload interface{})
	// FollowPreset moves a session's connections under presetCode; "" detaches them
	FollowPreset(sessionID, presetCode string)
	// Followers lists the connected sessions following presetCode
	Followers(presetCode string) []string
	DisconnectSession(sessionID string)
}
