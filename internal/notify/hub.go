package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

const (
	eventJoin          = "join"
	eventLeave         = "leave"
	eventBalanceUpdate = "balanceUpdate"
)

type inbound struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

type balanceUpdate struct {
	UserID    string    `json:"userId"`
	Balance   int64     `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

type outbound struct {
	Event string        `json:"event"`
	Data  balanceUpdate `json:"data"`
}

type client struct {
	ws    *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
}

// Hub pushes balance updates to websocket clients. A client subscribes to
// a user's room with ?user_id= on connect or by sending
// {"event":"join","userId":"..."}, and leaves with {"event":"leave",...}.
// Clients that cannot keep up are disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
}

// NewHub accepts connections from any origin when allowedOrigins is empty.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		now:     time.Now,
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}

			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}

	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		ws:    ws,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		h.join(c, userID)
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) Notify(ctx context.Context, userID string, balance int64) {
	msg, err := json.Marshal(outbound{
		Event: eventBalanceUpdate,
		Data: balanceUpdate{
			UserID:    userID,
			Balance:   balance,
			Timestamp: h.now().UTC(),
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "encode balance update", "error", err)
		return
	}

	var slow []*client

	h.mu.RLock()
	for c := range h.rooms[userID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.WarnContext(ctx, "websocket client too slow, disconnecting", "user_id", userID)
		h.remove(c)
	}
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.remove(c)
	}

	return nil
}

func (h *Hub) subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[userID])
}

func (h *Hub) join(c *client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[userID] = room
	}

	room[c] = struct{}{}
	c.rooms[userID] = struct{}{}
}

func (h *Hub) leave(c *client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, userID)
}

func (h *Hub) leaveLocked(c *client, userID string) {
	delete(c.rooms, userID)

	room := h.rooms[userID]
	delete(room, c)

	if len(room) == 0 {
		delete(h.rooms, userID)
	}
}

// remove is idempotent. Closing send under the write lock is safe because
// senders hold the read lock.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, c)

	for userID := range c.rooms {
		h.leaveLocked(c, userID)
	}

	close(c.send)
	h.mu.Unlock()

	_ = c.ws.Close()
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "error", err)
			}

			return
		}

		var msg inbound

		err = json.Unmarshal(data, &msg)
		if err != nil || msg.UserID == "" {
			continue
		}

		switch msg.Event {
		case eventJoin:
			h.join(c, msg.UserID)
		case eventLeave:
			h.leave(c, msg.UserID)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			err := c.ws.WriteMessage(websocket.TextMessage, msg)
			if err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))

			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}
