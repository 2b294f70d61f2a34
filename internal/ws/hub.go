package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"
)

const broadcastBuffer = 64

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Message is the envelope every admin client receives.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

type Hub struct {
	Clients    map[Conn]bool
	Register   chan Conn
	Unregister chan Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	done       chan struct{}
	now        func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[Conn]bool),
		Register:   make(chan Conn),
		Unregister: make(chan Conn),
		Broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run fans broadcasts out to registered clients until ctx is done, then closes them all.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Debug().Int("clients", h.ClientCount()).Msg("WS client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Debug().Err(err).Msg("Dropping WS client")
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Add registers conn unless the hub has stopped.
func (h *Hub) Add(conn Conn) {
	select {
	case h.Register <- conn:
	case <-h.done:
	}
}

// Remove unregisters conn. It returns immediately once the hub has stopped.
func (h *Hub) Remove(conn Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish queues an event for every connected client. It never blocks the caller; when
// the buffer is full the event is dropped.
func (h *Hub) Publish(eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload, At: h.now()})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to encode WS event")
		return
	}

	select {
	case h.Broadcast <- data:
	default:
		log.Warn().Str("type", eventType).Msg("WS broadcast buffer full, event dropped")
	}
}
