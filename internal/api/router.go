// Package api serves the host lifecycle over HTTP. Requests are trusted to
// carry the owner id of an already authenticated caller in X-Owner-ID.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/metrics"
)

// RequestTimeout bounds every request, including webserver commands.
const RequestTimeout = 60 * time.Second

// NewRouter creates a new Chi router with all routes and middleware configured
func NewRouter(svc Service, m *metrics.Metrics, logger *zap.Logger) chi.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(Recovery(logger, m))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(Metrics(m))
	r.Use(chimiddleware.Timeout(RequestTimeout))

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Owner)

		r.Get("/vhosts", h.List)
		r.Get("/vhost/{id}", h.Get)
		r.Post("/vhost/create", h.Create)
		r.Delete("/vhost/delete", h.Delete)

		r.Get("/webserver/{verb}", h.Webserver)
	})

	return r
}

// Server wraps the HTTP server.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds a server listening on addr.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      RequestTimeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
