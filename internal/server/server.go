// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/drone-streamer/internal/imagery"
	"github.com/tamzrod/drone-streamer/internal/metrics"
	"github.com/tamzrod/drone-streamer/internal/mirror"
	"github.com/tamzrod/drone-streamer/internal/session"
	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// Config is the runtime config the server needs.
type Config struct {
	Addr string

	Interval        time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// SharedRotation gives every session the same cycler.
	SharedRotation bool

	// ReadLimit caps client frames; they are discarded anyway.
	ReadLimit int64
}

// Deps are the collaborators shared by all sessions. Catalog and
// Generators are required; the rest may be nil.
type Deps struct {
	Catalog    *imagery.Catalog
	Generators *telemetry.Factory
	Log        logrus.FieldLogger
	Metrics    *metrics.Metrics
	Mirror     *mirror.Hub
}

// Server accepts WebSocket clients and runs one session per connection.
type Server struct {
	cfg  Config
	deps Deps
	log  logrus.FieldLogger

	shared   *imagery.Cycler
	upgrader websocket.Upgrader
	router   chi.Router

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
	active   atomic.Int64
}

// New validates config and builds the router.
func New(cfg Config, d Deps) (*Server, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("server: interval must be > 0")
	}
	if d.Catalog == nil {
		return nil, errors.New("server: image catalog required")
	}
	if d.Generators == nil {
		return nil, errors.New("server: generator factory required")
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 64 << 10
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:    cfg,
		deps:   d,
		log:    d.Log,
		ctx:    ctx,
		cancel: cancel,
		upgrader: websocket.Upgrader{
			// No authentication: any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	if cfg.SharedRotation {
		s.shared = imagery.NewCycler(d.Catalog, d.Log, d.Metrics.ImageReadFailed)
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	// Streams are served on every other path.
	r.HandleFunc("/", s.handleStream)
	r.HandleFunc("/*", s.handleStream)

	return r
}

// Handler exposes the router (healthz, metrics, stream).
func (s *Server) Handler() http.Handler { return s.router }

// ActiveSessions is the number of sessions currently running.
func (s *Server) ActiveSessions() int { return int(s.active.Load()) }

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.log.WithError(err).WithField("remote", r.RemoteAddr).Debug("websocket upgrade rejected")
		return
	}
	conn.SetReadLimit(s.cfg.ReadLimit)

	sess, err := session.New(conn, session.Config{
		Interval:     s.cfg.Interval,
		WriteTimeout: s.cfg.WriteTimeout,
	}, session.Deps{
		Generator: s.deps.Generators.New(),
		Images:    s.imageSource(),
		Log:       s.log,
		Metrics:   s.deps.Metrics,
		Mirror:    s.deps.Mirror,
	})
	if err != nil {
		s.log.WithError(err).Error("session setup failed")
		_ = conn.Close()
		return
	}

	s.active.Add(1)
	defer s.active.Add(-1)

	sess.Run(s.ctx)
}

// imageSource returns the shared cycler or a fresh one over the shared catalog.
func (s *Server) imageSource() imagery.Source {
	if s.shared != nil {
		return s.shared
	}
	return imagery.NewCycler(s.deps.Catalog, s.log, s.deps.Metrics.ImageReadFailed)
}

// track registers a session unless the server is closing.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions.Add(1)
	return true
}

// Listen binds the configured address. Bind failures are startup failures.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return ln, nil
}

// Serve accepts on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		stopCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		_ = s.Shutdown(stopCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.WithError(err).Warn("http shutdown incomplete")
	}
	return s.Shutdown(shutdownCtx)
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Shutdown stops new sessions, signals the running ones, and waits for
// them until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("server: %d sessions still running: %w", s.ActiveSessions(), ctx.Err())
	}
}
