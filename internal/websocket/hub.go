package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"affiliate/pkg/cachekey"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventPartnersInvalidate tells dashboards to refetch every query under Prefix
const EventPartnersInvalidate = "partners.invalidate"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by CORS and the token check
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is one message pushed to a workspace
type Event struct {
	Event  string `json:"event"`
	Prefix string `json:"prefix,omitempty"`
}

// Client represents a single connected WebSocket client
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	workspaceID string
}

type message struct {
	workspaceID string
	payload     []byte
}

// Hub fans events out to the clients of one workspace
type Hub struct {
	rooms      map[string]map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With(zap.String("component", "ws")),
	}
}

// Run starts the dispatch loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for ws, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
				delete(h.rooms, ws)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.workspaceID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.workspaceID] = room
			}
			room[client] = true
			h.mu.Unlock()
			h.log.Debug("client connected", zap.String("workspace_id", client.workspaceID))
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.workspaceID] {
				select {
				case client.send <- msg.payload:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	room := h.rooms[client.workspaceID]
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.workspaceID)
	}
	h.log.Debug("client disconnected", zap.String("workspace_id", client.workspaceID))
}

// Count reports how many clients are subscribed to a workspace
func (h *Hub) Count(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[workspaceID])
}

// Publish queues ev for every client of workspaceID. A full queue drops the event.
func (h *Hub) Publish(workspaceID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode ws event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{workspaceID: workspaceID, payload: payload}:
	default:
		h.log.Warn("ws broadcast queue full, event dropped",
			zap.String("workspace_id", workspaceID),
			zap.String("event", ev.Event))
	}
}

// InvalidatePartners pushes the partner-list prefix of one program
func (h *Hub) InvalidatePartners(workspaceID, programID uuid.UUID) {
	h.Publish(workspaceID.String(), Event{
		Event:  EventPartnersInvalidate,
		Prefix: cachekey.Partners(workspaceID.String(), programID.String()),
	})
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump keeps the connection alive until the peer goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("ws read failed", zap.Error(err))
			}
			return
		}
	}
}

// MembershipChecker reports whether a user may watch a workspace
type MembershipChecker interface {
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
}

// ServeWs authenticates the token query param and subscribes the peer to workspaceId
func ServeWs(hub *Hub, c *gin.Context, secret []byte, members MembershipChecker) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		hub.log.Info("ws connection rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	workspaceID, err := uuid.Parse(c.Query("workspaceId"))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ok, err := members.IsMember(c.Request.Context(), workspaceID, userID)
	if err != nil {
		hub.log.Error("ws membership check failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if !ok {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), workspaceID: workspaceID.String()}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
