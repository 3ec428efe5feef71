// Package live relays owner session events to remote watchers over websockets.
package live

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	RolePublisher = "publisher"
	RoleWatcher   = "watcher"

	readLimit    = 64 << 10
	writeTimeout = 5 * time.Second
)

// pongWait bounds how long a peer may stay silent; pings go out at 9/10 of it.
var pongWait = 60 * time.Second

type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) write(msgType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return p.conn.WriteMessage(msgType, data)
}

// ping keeps the peer's read deadline moving while it has nothing to say.
func (p *peer) ping(period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := p.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub fans messages from one session publisher out to that session's watchers.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*peer]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		watchers: map[string]map[*peer]struct{}{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Watchers returns the number of connected watchers for session.
func (h *Hub) Watchers(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[session])
}

func (h *Hub) add(session string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[session]
	if !ok {
		set = map[*peer]struct{}{}
		h.watchers[session] = set
	}
	set[p] = struct{}{}
}

func (h *Hub) remove(session string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.watchers[session]
	delete(set, p)
	if len(set) == 0 {
		delete(h.watchers, session)
	}
}

// Broadcast writes msg to every watcher of session. Watchers that fail the write are dropped.
func (h *Hub) Broadcast(session string, msgType int, msg []byte) {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.watchers[session]))
	for p := range h.watchers[session] {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	for _, p := range targets {
		if err := p.write(msgType, msg); err != nil {
			h.logDebug("drop live watcher", "session", session, "error", err.Error())
			h.remove(session, p)
			_ = p.conn.Close()
		}
	}
}

// ServeHTTP upgrades GET /v1/live?session=ID&role=publisher|watcher.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := strings.TrimSpace(r.URL.Query().Get("session"))
	role := r.URL.Query().Get("role")
	if role == "" {
		role = RoleWatcher
	}
	if session == "" || (role != RolePublisher && role != RoleWatcher) {
		http.Error(w, "session and role=publisher|watcher required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wait := pongWait
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	p := &peer{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go p.ping(wait*9/10, done)

	if role == RoleWatcher {
		h.add(session, p)
		defer h.remove(session, p)
	}
	h.logDebug("live peer connected", "session", session, "role", role)

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		if role != RolePublisher {
			continue
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		h.Broadcast(session, mt, msg)
	}
}

func (h *Hub) logDebug(msg string, attrs ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Debug(msg, attrs...)
}
