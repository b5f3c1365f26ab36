// Package stream broadcasts published simulation frames to websocket
// subscribers as JSON.
package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/san-kum/hybridsim/internal/sim"
)

const writeWait = 5 * time.Second

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage sends a message guarded by the subscriber's mutex and write
// deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	if s == nil || s.conn == nil {
		return errors.New("subscriber closed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub fans frames out to every connected subscriber. Publish is called
// from the simulation goroutine; subscribers connect through ServeHTTP.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	upgrader    websocket.Upgrader
	logger      *log.Logger
	seq         atomic.Uint64
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Len is the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.warn("websocket upgrade failed", "err", err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.subscribers[id] = &subscriber{conn: conn}
	h.mu.Unlock()
	h.debug("subscriber connected", "id", id, "remote", r.RemoteAddr)

	// Subscribers never send anything we act on; reading only detects
	// the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.disconnect(id)
}

func (h *Hub) disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
		h.debug("subscriber disconnected", "id", id)
	}
}

// Publish is a sim.FrameListener. Delivery failures drop the subscriber
// and are never returned to the simulation.
func (h *Hub) Publish(f sim.Frame) error {
	msg := NewFrameMessage(h.seq.Add(1), f)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Broadcast sends data as a text message to every subscriber.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.warn("failed to send frame", "id", id, "err", err)
			h.disconnect(id)
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.disconnect(id)
	}
}

func (h *Hub) debug(msg string, kv ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, kv...)
	}
}

func (h *Hub) warn(msg string, kv ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, kv...)
	}
}
