package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	lumenerrors "github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/app"
)

// ShellFactory builds one shell per session: register templates, mount
// the root component, return. Rebuild is the session's job.
type ShellFactory func() (*app.Shell, error)

// Server serves shells over websockets.
type Server struct {
	cfg      Config
	factory  ShellFactory
	router   chi.Router
	upgrader websocket.Upgrader
	metrics  *metrics
	tracer   trace.Tracer
	logger   *slog.Logger

	httpServer *http.Server
}

// New creates a server around a shell factory.
func New(factory ShellFactory, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		cfg:     cfg,
		factory: factory,
		metrics: newMetrics(cfg.Registry),
		tracer:  otel.Tracer(cfg.TracerName),
		logger:  cfg.Logger.With("component", "server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if cfg.CheckOrigin != nil {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return cfg.CheckOrigin(r.Header.Get("Origin"))
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())
	r.Get("/ws", s.handleWS)
	s.router = r
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) metricsHandler() http.Handler {
	if g, ok := s.cfg.Registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	shell, err := s.factory()
	if err != nil {
		s.metrics.sessionErrors.WithLabelValues("factory").Inc()
		s.logger.Error("shell factory failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		shell.Destroy()
		s.metrics.sessionErrors.WithLabelValues("upgrade").Inc()
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	sess := newSession(conn, shell, &s.cfg, s.metrics, s.tracer)
	s.metrics.activeSessions.Inc()
	defer s.metrics.activeSessions.Dec()
	s.logger.Info("session started", "session", sess.ID(), "remote", r.RemoteAddr)
	sess.Run(r.Context())
}

// ListenAndServe runs the server until ctx is done, then drains with a
// short shutdown grace.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return lumenerrors.New("E100").WithDetailf("addr %s", s.cfg.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
