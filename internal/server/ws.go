package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/treelight/internal/app"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	// The page is served by this process on a local address.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type sceneClient struct {
	particles bool
	send      chan []byte
}

// SceneHandler pushes the latest RenderFrame to websocket clients at a fixed
// rate. Slow clients miss frames rather than queue them.
type SceneHandler struct {
	app    *app.App
	fps    int
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sceneClient
}

// NewSceneHandler creates a handler broadcasting at fps.
func NewSceneHandler(a *app.App, fps int, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{
		app:     a,
		fps:     fps,
		logger:  logger,
		clients: make(map[*websocket.Conn]*sceneClient),
	}
}

// ServeHTTP upgrades the request. Query ?particles=0 drops instance batches.
func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	client := &sceneClient{
		particles: r.URL.Query().Get("particles") != "0",
		send:      make(chan []byte, 1),
	}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *SceneHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts until ctx is done.
func (h *SceneHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *SceneHandler) broadcast() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	var full, lite []byte
	for _, c := range h.clients {
		var msg []byte
		if c.particles {
			if full == nil {
				full = h.encode(true)
			}
			msg = full
		} else {
			if lite == nil {
				lite = h.encode(false)
			}
			msg = lite
		}
		if msg == nil {
			continue
		}

		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *SceneHandler) encode(particles bool) []byte {
	msg, err := json.Marshal(h.app.Frame(particles))
	if err != nil {
		h.logger.Error("encode frame", "error", err)
		return nil
	}
	return msg
}
