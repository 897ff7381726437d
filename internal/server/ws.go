package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/nritya/internal/gesture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	// clientBuffer is how many events a slow client may lag behind before
	// events are dropped for it.
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

// EventHub broadcasts emitted gesture events to websocket clients.
type EventHub struct {
	clients map[*websocket.Conn]chan []byte
	mu      sync.RWMutex
}

// NewEventHub creates an empty EventHub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(conn, send, done)

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[conn]; ok {
			delete(h.clients, conn)
			close(send)
		}
		h.mu.Unlock()
		<-done
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writeLoop is the only writer for conn.
func (h *EventHub) writeLoop(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			for range send {
			}
			return
		}
	}
}

// Publish sends ev to every connected client. It never blocks; a client
// whose buffer is full misses the event. It satisfies gesture.Handler.
func (h *EventHub) Publish(ev gesture.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("failed to encode event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
		conn.Close()
	}
}
