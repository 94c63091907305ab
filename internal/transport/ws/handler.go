package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"scaledrill/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	requestTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	authSvc  *service.AuthService
	drillSvc *service.DrillService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, drillSvc *service.DrillService) *Handler {
	return &Handler{
		hub:      hub,
		authSvc:  authSvc,
		drillSvc: drillSvc,
	}
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// DrillWS handles GET /v1/ws/drills/{sessionId}
func (h *Handler) DrillWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateDrillToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if claims.SessionID != sessionID {
		http.Error(w, "token not valid for this drill", http.StatusForbidden)
		return
	}

	session, err := h.drillSvc.Session(r.Context(), sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		http.Error(w, "drill not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID:  sessionID,
		PresetCode: session.PresetCode,
		Send:       make(chan []byte, 256),
		Hub:        h.hub,
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)

	h.handle(conn, &Message{Type: MsgCurrent})
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.Reply(conn, MsgError, errorPayload{Error: "invalid message"})
			continue
		}
		h.handle(conn, &msg)
	}
}

// handle runs one client request. Questions and verdicts reach the client
// through the session broadcast; only direct replies are sent here.
func (h *Handler) handle(conn *Connection, msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MsgAnswer:
		var p answerPayload
		if err = json.Unmarshal(msg.Payload, &p); err != nil {
			h.hub.Reply(conn, MsgError, errorPayload{Error: "invalid answer payload"})
			return
		}
		_, err = h.drillSvc.Answer(ctx, conn.SessionID, p.Answer)
	case MsgNext:
		_, err = h.drillSvc.Next(ctx, conn.SessionID)
	case MsgCurrent:
		var q interface{}
		if q, err = h.drillSvc.Current(ctx, conn.SessionID); err == nil {
			h.hub.Reply(conn, MsgQuestion, q)
		}
	default:
		h.hub.Reply(conn, MsgError, errorPayload{Error: "unknown message type " + string(msg.Type)})
		return
	}

	if err != nil {
		log.Printf("Drill %s %s: %v", conn.SessionID, msg.Type, err)
		h.hub.Reply(conn, MsgError, errorPayload{Error: err.Error()})
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
