package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"gofichero/model"
)

const broadcastTimeout = 2 * time.Second

// Registry tracks connected event-stream clients and fans job events
// out to them.
type Registry struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[*websocket.Conn]struct{})}
}

func (r *Registry) Add(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = struct{}{}
}

func (r *Registry) Remove(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Broadcast sends an event to every client. A client that can't keep up
// within the timeout just misses the event; disconnect cleanup happens
// in the read loop.
func (r *Registry) Broadcast(event model.JobEvent) {
	r.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(r.conns))
	for conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
		if err := wsjson.Write(ctx, conn, event); err != nil {
			slog.Debug("Couldn't push event to client", "err", err)
		}
		cancel()
	}
}
