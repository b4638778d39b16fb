package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/adjebara/people-search/backend/internal/session"
)

// Hub fans session events out to connected websocket clients so the UI can
// refresh its results panel without polling.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

type envelope struct {
	Type      string        `json:"type"`
	Phase     session.Phase `json:"phase"`
	Count     int           `json:"resultsCount"`
	Timestamp int64         `json:"timestamp"`
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleConnect)
}

func (h *Hub) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain the read side so close frames are processed; clients never
	// send application data on this feed.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast implements the engine's notifier hook.
func (h *Hub) Broadcast(event session.Event) {
	msg := envelope{
		Type:      event.Type,
		Phase:     event.Phase,
		Count:     event.ResultsCount,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[events] dropping client: %v", err)
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}
