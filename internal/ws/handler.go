package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/slingshot/internal/auth"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/logging"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// Client is one websocket attached to a session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	closeOnce sync.Once
	log       *zap.Logger
}

// Hub tracks which socket drives which session. A new socket for a session
// replaces the old one.
type Hub struct {
	clients    map[string]*Client // session ID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logging.Named("ws"),
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				c.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.sessionID]; ok {
				h.log.Info("session reconnecting, closing old socket", zap.String("session", client.sessionID))
				if err := old.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
					time.Now().Add(5*time.Second)); err != nil {
					h.log.Debug("close control to old socket failed", zap.Error(err))
				}
				old.conn.Close()
				old.closeSend()
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.log.Info("socket connected", zap.String("session", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.sessionID]; ok && cur == client {
				delete(h.clients, client.sessionID)
				h.log.Info("socket disconnected", zap.String("session", client.sessionID))
			}
			client.closeSend()
			h.mu.Unlock()
		}
	}
}

// Connected reports whether a socket is attached to the session.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// SendToSession queues a raw message for the session's socket, dropping it
// when the socket is slow.
func (h *Hub) SendToSession(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[sessionID]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("send buffer full, dropping message", zap.String("session", sessionID))
	}
}

// BroadcastFrame is the session manager's frame handler.
func (h *Hub) BroadcastFrame(sessionID string, f game.Frame) {
	if !h.Connected(sessionID) {
		return
	}
	data, err := encode("frame", f)
	if err != nil {
		h.log.Error("failed to encode frame", zap.String("session", sessionID), zap.Error(err))
		return
	}
	h.SendToSession(sessionID, data)
}

// BroadcastEvent relays a session event. An ended session also closes its socket.
func (h *Hub) BroadcastEvent(ev game.SessionEvent) {
	data, err := encode("session_event", ev)
	if err != nil {
		h.log.Error("failed to encode session event", zap.String("session", ev.SessionID), zap.Error(err))
		return
	}
	h.SendToSession(ev.SessionID, data)

	if ev.Kind == "ended" {
		h.mu.Lock()
		if c, ok := h.clients[ev.SessionID]; ok {
			delete(h.clients, ev.SessionID)
			c.closeSend()
		}
		h.mu.Unlock()
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Handler upgrades session sockets.
type Handler struct {
	hub      *Hub
	mgr      *game.SessionManager
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, mgr *game.SessionManager, cfg *config.Config) *Handler {
	return &Handler{
		hub: hub,
		mgr: mgr,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are checked by middleware.WebSocketCORSCheck.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeSession handles GET /sessions/:id/ws?token=.
func (h *Handler) ServeSession(c *gin.Context) {
	sessionID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	granted, err := auth.ParseSessionToken(h.cfg.JWTSecret, token)
	if err != nil || granted != sessionID {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid session token"})
		return
	}
	if _, err := h.mgr.Get(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("upgrade error", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		log:       h.hub.log.With(zap.String("session", sessionID)),
	}
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.mgr)
}

// readPump feeds client messages into the session.
func (c *Client) readPump(mgr *game.SessionManager) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected websocket close", zap.Error(err))
			} else {
				c.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		if !c.handleMessage(mgr, msg) {
			return
		}
	}
}

// handleMessage returns false once the session is gone.
func (c *Client) handleMessage(mgr *game.SessionManager, msg WSMessage) bool {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	if msg.Type == msgGetFrame {
		f, err := mgr.Frame(ctx, c.sessionID)
		if err != nil {
			c.sendError("session not found")
			return !errors.Is(err, game.ErrSessionNotFound)
		}
		if data, err := encode("frame", f); err == nil {
			c.trySend(data)
		}
		return true
	}

	in, err := decodeInput(msg)
	if err != nil {
		c.sendError(err.Error())
		return true
	}

	if err := mgr.Submit(ctx, c.sessionID, in); err != nil {
		if errors.Is(err, game.ErrSessionNotFound) || errors.Is(err, game.ErrSessionClosed) {
			c.sendError("session ended")
			return false
		}
		c.log.Warn("failed to submit input", zap.String("input", in.Kind()), zap.Error(err))
	}
	return true
}

// writePump writes queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debug("websocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("websocket ping error", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) sendError(message string) {
	data, err := json.Marshal(map[string]interface{}{"type": "error", "message": message})
	if err != nil {
		return
	}
	c.trySend(data)
}

// trySend queues data from the read side. The send channel may already be
// closed by the hub, so the send is guarded.
func (c *Client) trySend(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}
