package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Envelope is the frame every subscriber receives.
type Envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Hub fans session events out to websocket subscribers. Subscribers whose
// send buffer is full are dropped rather than allowed to stall a turn.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Client

	upgrader websocket.Upgrader
	log      *zap.Logger
	now      func() time.Time
}

type Client struct {
	ID        string
	SessionID string
	PlayerID  string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
		now: time.Now,
	}
}

// Serve upgrades the request and subscribes the connection to sessionID until
// the peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID, playerID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		PlayerID:  playerID,
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
	h.register(c)
	go c.writePump()
	go c.readPump()
	return nil
}

// Publish encodes payload once and queues it for every subscriber of the
// session.
func (h *Hub) Publish(sessionID, kind string, payload any) {
	env := Envelope{Type: kind, SessionID: sessionID, Timestamp: h.now().Unix()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.log.Error("encode event", zap.String("type", kind), zap.Error(err))
			return
		}
		env.Data = raw
	}
	frame, err := json.Marshal(env)
	if err != nil {
		h.log.Error("encode envelope", zap.String("type", kind), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for _, c := range h.sessions[sessionID] {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow subscriber", zap.String("session_id", sessionID), zap.String("client_id", c.ID))
		h.unregister(c)
	}
}

// Subscribers reports how many clients follow a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// CloseSession disconnects every subscriber of a session.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[sessionID]))
	for _, c := range h.sessions[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	subs, ok := h.sessions[c.SessionID]
	if !ok {
		subs = make(map[string]*Client)
		h.sessions[c.SessionID] = subs
	}
	subs[c.ID] = c
	h.mu.Unlock()
	h.log.Info("subscriber connected",
		zap.String("session_id", c.SessionID),
		zap.String("player_id", c.PlayerID),
		zap.String("client_id", c.ID))
}

func (h *Hub) unregister(c *Client) {
	c.once.Do(func() {
		h.mu.Lock()
		if subs, ok := h.sessions[c.SessionID]; ok {
			delete(subs, c.ID)
			if len(subs) == 0 {
				delete(h.sessions, c.SessionID)
			}
		}
		h.mu.Unlock()
		close(c.send)
		h.log.Info("subscriber disconnected", zap.String("session_id", c.SessionID), zap.String("client_id", c.ID))
	})
}

// readPump only watches for the peer closing; clients never send commands
// over the stream.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
