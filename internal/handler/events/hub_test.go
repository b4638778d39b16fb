package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/adjebara/people-search/backend/internal/session"
)

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing events feed: %v", err)
	}
	defer conn.Close()

	// The handshake resolves client-side slightly before the server
	// registers the connection; wait for registration.
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(session.Event{Type: "search", Phase: session.PhaseReviewing, ResultsCount: 2})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg envelope
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if msg.Type != "search" || msg.Phase != session.PhaseReviewing || msg.Count != 2 {
		t.Fatalf("unexpected event: %+v", msg)
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing events feed: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(time.Second)
	for {
		hub.Broadcast(session.Event{Type: "reset", Phase: session.PhaseSearching})
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("closed client was never dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
