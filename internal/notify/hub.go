// Package notify pushes live updates to browser clients over websockets.
// Clients join the room of one event ("event-<id>") and receive every
// message broadcast to that room: new registrations and finished seating
// runs.
package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anz-davar/event-management/internal/metrics"
)

// Message names sent to clients.
const (
	GuestRegistered  = "guestRegistered"
	FamilyRegistered = "familyRegistered"
	SeatingOptimized = "seatingOptimized"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// Envelope is the JSON frame written to clients.
type Envelope struct {
	Event string `json:"event"`
	Room  string `json:"room"`
	Data  any    `json:"data"`
}

// RoomForEvent names the room of an event.
func RoomForEvent(eventID uint64) string { return fmt.Sprintf("event-%d", eventID) }

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	room string
}

// Hub tracks connected clients per room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	log   *zap.Logger
}

// NewHub creates an empty hub.  A nil logger disables logging.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{rooms: make(map[string]map[*client]struct{}), log: logger.Named("notify")}
}

// Count returns how many clients are in room.
func (h *Hub) Count(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Serve upgrades the request and keeps the client in room until the
// connection closes.  It blocks for the life of the connection.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, room string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), room: room}
	h.join(c)
	defer h.leave(c)

	go h.writeLoop(c)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// Clients never send anything meaningful; reading only detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read failed", zap.String("room", room), zap.Error(err))
			}
			return nil
		}
	}
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	members, ok := h.rooms[c.room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[c.room] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()
	metrics.WebsocketClients.Inc()
	h.log.Debug("client joined", zap.String("room", c.room))
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	if members, ok := h.rooms[c.room]; ok {
		if _, in := members[c]; in {
			delete(members, c)
			close(c.send)
			metrics.WebsocketClients.Dec()
		}
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Broadcast sends event with data to every client of room and returns the
// number of clients it was queued for.  Clients whose buffer is full are
// skipped rather than blocking the caller.
func (h *Hub) Broadcast(room, event string, data any) (int, error) {
	msg, err := json.Marshal(Envelope{Event: event, Room: room, Data: data})
	if err != nil {
		return 0, fmt.Errorf("marshal %s: %w", event, err)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- msg:
			sent++
		default:
			h.log.Warn("dropping message for slow client", zap.String("room", room), zap.String("event", event))
		}
	}
	return sent, nil
}
