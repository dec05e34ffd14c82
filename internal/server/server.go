// Package server exposes editor sessions over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	ws "github.com/gorilla/websocket"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/dispatcher"
	"github.com/gymjs/muscle-selector/internal/handlers"
	"github.com/gymjs/muscle-selector/internal/logging"
)

const (
	maxBodyBytes  = 1 << 20
	readTimeout   = 15 * time.Second
	headerTimeout = 5 * time.Second
)

// Server serves the REST API and the per-session WebSocket stream.
type Server struct {
	cfg        config.ServerConfig
	svc        *handlers.Service
	dispatcher *dispatcher.Dispatcher
	logger     *slog.Logger
	upgrader   ws.Upgrader
	router     chi.Router
	httpServer *http.Server

	mu      sync.Mutex
	conns   map[*connection]struct{}
	closing bool
	wg      sync.WaitGroup
}

// errShuttingDown refuses WebSocket upgrades once Shutdown has begun.
var errShuttingDown = errors.New("server is shutting down")

// New builds the router. The dispatcher must already carry the service's
// handlers.
func New(cfg config.ServerConfig, svc *handlers.Service, d *dispatcher.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		svc:        svc,
		dispatcher: d,
		logger:     logger,
		conns:      make(map[*connection]struct{}),
	}
	s.upgrader = ws.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogContext)

	r.Get("/healthcheck", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/events", s.handleEvent)
				r.Get("/ws", s.handleWebSocket)
			})
		})
		r.Get("/layout", s.handleLayout)
		r.Put("/layout", s.handleImportLayout)
		r.Get("/exercises", s.handleMuscles)
		r.Get("/exercises/{muscle}", s.handleExercises)
		r.Get("/profiles/{userID}", s.handleGetProfile)
		r.Put("/profiles/{userID}", s.handlePutProfile)
	})
	return r
}

// requestLogContext tags records logged with the request context with the
// request id.
func requestLogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWith(r.Context(), slog.String("requestId", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// checkOrigin allows requests without an Origin header, any origin when the
// list holds "*", and otherwise only the listed origins. An empty list falls
// back to a same-host check.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}

// ListenAndServe blocks serving cfg.Listen until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: headerTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("HTTP server listening", "addr", s.cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes open WebSocket streams and
// waits for their goroutines to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	srv := s.httpServer
	conns := make([]*connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	for _, c := range conns {
		c.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// Connections returns the number of open WebSocket streams.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// track registers c and reserves its two loop goroutines. It returns false
// once Shutdown has taken its snapshot, and the caller must drop c.
func (s *Server) track(c *connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(2)
	return true
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) untrack(c *connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}
