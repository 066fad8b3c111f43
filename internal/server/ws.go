package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultPollInterval is how often the status stream samples the pipeline.
const DefaultPollInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusHandler pushes pipeline status to WebSocket clients whenever the
// frame count or enabled flag changes.
type StatusHandler struct {
	provider StatusProvider
	interval time.Duration
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	stopCh   chan struct{}
	once     sync.Once
}

// NewStatusHandler creates a StatusHandler polling provider every interval.
func NewStatusHandler(provider StatusProvider, interval time.Duration) *StatusHandler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	h := &StatusHandler{
		provider: provider,
		interval: interval,
		clients:  make(map[*websocket.Conn]bool),
		stopCh:   make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests. New clients get the
// current status immediately.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	msg, err := json.Marshal(h.provider.Status())
	if err == nil {
		h.mu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, msg)
		h.clients[conn] = true
		h.mu.Unlock()
	}
	if err != nil {
		return
	}

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *StatusHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting.
func (h *StatusHandler) Close() {
	h.once.Do(func() { close(h.stopCh) })
}

// broadcast sends status to all connected clients when it changes.
func (h *StatusHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastFrames uint64
	var lastEnabled, lastRunning bool
	first := true

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		st := h.provider.Status()
		if !first && st.Frames == lastFrames && st.Enabled == lastEnabled && st.Running == lastRunning {
			continue
		}
		first = false
		lastFrames, lastEnabled, lastRunning = st.Frames, st.Enabled, st.Running

		msg, err := json.Marshal(st)
		if err != nil {
			log.Printf("status encode error: %v", err)
			continue
		}

		// Writes happen under the write lock since a conn allows one writer.
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}
