// Package readywatch pushes turn readiness updates over websockets so
// waiting-for-players displays update without polling. The submit handler
// notifies the hub after each accepted action; the hub fans the fresh
// TurnStatus out to every watcher of that session and turn.
package readywatch

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/louisbranch/concord.quest/internal/game/domain"
)

type watchKey struct {
	sessionID string
	turn      int64
}

// watcher serializes writes to one connection; gorilla/websocket allows only
// one concurrent writer.
type watcher struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *watcher) send(status domain.TurnStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(status)
}

// Hub tracks websocket watchers keyed by (session, turn).
type Hub struct {
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchers map[watchKey]map[*watcher]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The HTTP layer already enforces CORS; the upgrade itself
			// accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		watchers: make(map[watchKey]map[*watcher]struct{}),
	}
}

// Watch upgrades the request to a websocket, sends the current status, and
// keeps the connection registered until the client disconnects.
func (h *Hub) Watch(w http.ResponseWriter, r *http.Request, status domain.TurnStatus) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	key := watchKey{sessionID: status.SessionID, turn: status.Turn}
	target := &watcher{conn: conn}
	h.register(key, target)

	if err := target.send(status); err != nil {
		h.unregister(key, target)
		return
	}

	// Drain client frames until the connection closes; watchers never send
	// meaningful payloads.
	go func() {
		defer h.unregister(key, target)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Notify pushes a fresh status to every watcher of its session and turn.
// Connections that fail to write are dropped.
func (h *Hub) Notify(status domain.TurnStatus) {
	key := watchKey{sessionID: status.SessionID, turn: status.Turn}

	h.mu.Lock()
	targets := make([]*watcher, 0, len(h.watchers[key]))
	for target := range h.watchers[key] {
		targets = append(targets, target)
	}
	h.mu.Unlock()

	for _, target := range targets {
		if err := target.send(status); err != nil {
			h.unregister(key, target)
		}
	}
}

// WatcherCount reports the number of open connections for one turn.
func (h *Hub) WatcherCount(sessionID string, turn int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[watchKey{sessionID: sessionID, turn: turn}])
}

func (h *Hub) register(key watchKey, target *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[key] == nil {
		h.watchers[key] = make(map[*watcher]struct{})
	}
	h.watchers[key][target] = struct{}{}
}

func (h *Hub) unregister(key watchKey, target *watcher) {
	h.mu.Lock()
	if set, ok := h.watchers[key]; ok {
		delete(set, target)
		if len(set) == 0 {
			delete(h.watchers, key)
		}
	}
	h.mu.Unlock()
	_ = target.conn.Close()
}
