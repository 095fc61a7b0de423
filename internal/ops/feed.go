// Package ops provides the live activity feed for the ops dashboard.
package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jmrelampagos/pagereply/internal/engage"
)

const publishTimeout = 5 * time.Second

// Feed broadcasts one JSON record per decided event to all connected
// dashboard clients. A slow or dead client is dropped rather than allowed
// to stall event handling.
type Feed struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewFeed creates an empty activity feed.
func NewFeed() *Feed {
	return &Feed{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Publish sends the activity record to every connected client.
func (f *Feed) Publish(activity engage.Activity) {
	data, err := json.Marshal(activity)
	if err != nil {
		slog.Error("Failed to marshal activity record", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.conns {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("Dropping activity feed client", "error", err)
			_ = conn.Close(websocket.StatusNormalClosure, "write failed")
			delete(f.conns, conn)
		}
	}
}

// ClientCount returns the number of connected feed clients.
func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

func (f *Feed) register(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conns[conn] = struct{}{}
}

func (f *Feed) unregister(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, conn)
}

// ServeHTTP upgrades the request to a websocket and streams activity
// records until the client disconnects. The feed is one-way; inbound
// messages are read and discarded to surface connection closure.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept activity feed websocket", "error", err)
		return
	}

	slog.Info("Activity feed client connected", "ip", r.RemoteAddr)
	f.register(ws)
	defer func() {
		f.unregister(ws)
		_ = ws.Close(websocket.StatusNormalClosure, "feed closed")
		slog.Info("Activity feed client disconnected", "ip", r.RemoteAddr)
	}()

	for {
		if _, _, err := ws.Read(r.Context()); err != nil {
			return
		}
	}
}
