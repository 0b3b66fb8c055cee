// Package server exposes the scene over HTTP: JSON control endpoints, a
// websocket frame feed and an MJPEG camera preview.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/treelight/internal/app"
)

// DefaultBroadcastFPS is the websocket frame rate when Config leaves it at zero.
const DefaultBroadcastFPS = 30

// Config holds the server configuration.
type Config struct {
	App          *app.App
	Logger       *slog.Logger
	StaticDir    string
	BroadcastFPS int
}

// Server is the treelight HTTP server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *app.App
	router chi.Router
	scene  *SceneHandler
	start  time.Time
}

// New builds the router. The scene broadcaster runs until ctx is done.
func New(ctx context.Context, config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BroadcastFPS <= 0 {
		config.BroadcastFPS = DefaultBroadcastFPS
	}

	s := &Server{
		config: config,
		logger: config.Logger,
		app:    config.App,
		start:  time.Now(),
	}
	s.scene = NewSceneHandler(config.App, config.BroadcastFPS, config.Logger)
	go s.scene.Run(ctx)

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Post("/api/toggle", s.handleToggle)
	r.Post("/api/click", s.handleClick)
	r.Post("/api/miss", s.handleMiss)
	r.Put("/api/gestures", s.handleGestures)
	r.Get("/api/transitions", s.handleTransitions)

	r.Route("/api/frames/{id}", func(r chi.Router) {
		r.Post("/select", s.handleSelect)
		r.Post("/image", s.handleAttach)
		r.Delete("/image", s.handleDetach)
	})
	r.Get("/api/images/{handle}", s.handleImage)

	r.Handle("/api/scene", s.scene)
	r.Handle("/api/stream", NewStreamHandler(s.app.Preview()))

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
