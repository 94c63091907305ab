package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server message types
const (
	MsgQuestion      MessageType = "question"
	MsgVerdict       MessageType = "verdict"
	MsgPresetUpdated MessageType = "preset_updated"
	MsgError         MessageType = "error"
)

// Client message types
const (
	MsgAnswer  MessageType = "answer"
	MsgNext    MessageType = "next"
	MsgCurrent MessageType = "current"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub manages WebSocket connections for drill sessions
type Hub struct {
	sessions  map[string]map[*Connection]struct{} // sessionID -> conns
	presets   map[string]map[string]struct{}      // presetCode -> sessionIDs
	following map[string]string                   // sessionID -> presetCode

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	follow     chan followChange
	disconnect chan string
	broadcast  chan *BroadcastMessage
	done       chan struct{}
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID  string
	PresetCode string // Empty when the session is not following a preset
	Send       chan []byte
	Hub        *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID  string
	PresetCode string      // Set means every session following the preset
	Conn       *Connection // Set means this connection only
	Message    *Message
}

type followChange struct {
	sessionID  string
	presetCode string
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Connection]struct{}),
		presets:    make(map[string]map[string]struct{}),
		following:  make(map[string]string),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		follow:     make(chan followChange, 16),
		disconnect: make(chan string, 16),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.sessions[conn.SessionID][conn] = struct{}{}
			if _, ok := h.following[conn.SessionID]; !ok {
				h.setFollow(conn.SessionID, conn.PresetCode)
			}
			h.mu.Unlock()
			log.Printf("Drill %s connected", conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.sessions[conn.SessionID]; ok {
				if _, ok := conns[conn]; ok {
					h.drop(conn)
					log.Printf("Drill %s disconnected", conn.SessionID)
				}
			}
			h.mu.Unlock()

		case fc := <-h.follow:
			h.mu.Lock()
			if _, ok := h.sessions[fc.sessionID]; ok {
				h.setFollow(fc.sessionID, fc.presetCode)
			}
			h.mu.Unlock()

		case id := <-h.disconnect:
			h.mu.Lock()
			for conn := range h.sessions[id] {
				h.drop(conn)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				log.Printf("WebSocket marshal error: %v", err)
				continue
			}
			h.mu.RLock()
			if msg.Conn != nil {
				if _, ok := h.sessions[msg.Conn.SessionID][msg.Conn]; ok {
					select {
					case msg.Conn.Send <- data:
					default:
					}
				}
			} else if msg.PresetCode != "" {
				for id := range h.presets[msg.PresetCode] {
					h.sendAll(id, data)
				}
			} else {
				h.sendAll(msg.SessionID, data)
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.sessions {
				for conn := range conns {
					h.drop(conn)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// sendAll drops the message for connections whose buffer is full
func (h *Hub) sendAll(sessionID string, data []byte) {
	for conn := range h.sessions[sessionID] {
		select {
		case conn.Send <- data:
		default:
		}
	}
}

// drop removes conn and closes its send channel; h.mu must be held
func (h *Hub) drop(conn *Connection) {
	conns := h.sessions[conn.SessionID]
	delete(conns, conn)
	close(conn.Send)
	if len(conns) == 0 {
		delete(h.sessions, conn.SessionID)
		h.setFollow(conn.SessionID, "")
		delete(h.following, conn.SessionID)
	}
}

// setFollow updates the preset index; h.mu must be held
func (h *Hub) setFollow(sessionID, presetCode string) {
	if old, ok := h.following[sessionID]; ok && old != "" {
		delete(h.presets[old], sessionID)
		if len(h.presets[old]) == 0 {
			delete(h.presets, old)
		}
	}
	h.following[sessionID] = presetCode
	if presetCode == "" {
		return
	}
	if h.presets[presetCode] == nil {
		h.presets[presetCode] = make(map[string]struct{})
	}
	h.presets[presetCode][sessionID] = struct{}{}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Stop closes every connection and stops the hub
func (h *Hub) Stop() {
	close(h.done)
}

// Connections returns the number of open connections for a session
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// Following returns the preset code a connected session follows
func (h *Hub) Following(sessionID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.following[sessionID]
}

// Followers lists the connected sessions following a preset (implements service.Broadcaster)
func (h *Hub) Followers(presetCode string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.presets[presetCode]))
	for id := range h.presets[presetCode] {
		ids = append(ids, id)
	}
	return ids
}

// BroadcastToSession sends a message to every connection of a drill session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	h.queue(&BroadcastMessage{SessionID: sessionID}, msgType, payload)
}

// BroadcastToPreset sends a message to every session following a preset (implements service.Broadcaster)
func (h *Hub) BroadcastToPreset(presetCode string, msgType string, payload interface{}) {
	h.queue(&BroadcastMessage{PresetCode: presetCode}, msgType, payload)
}

// FollowPreset re-indexes a session under presetCode (implements service.Broadcaster)
func (h *Hub) FollowPreset(sessionID, presetCode string) {
	select {
	case h.follow <- followChange{sessionID: sessionID, presetCode: presetCode}:
	case <-h.done:
	}
}

// DisconnectSession closes every connection of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.done:
	}
}

func (h *Hub) queue(msg *BroadcastMessage, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WebSocket payload error: %v", err)
		return
	}
	msg.Message = &Message{Type: MessageType(msgType), Payload: data}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Reply sends a message to a single connection if it is still registered
func (h *Hub) Reply(conn *Connection, msgType MessageType, payload interface{}) {
	h.queue(&BroadcastMessage{Conn: conn}, string(msgType), payload)
}
