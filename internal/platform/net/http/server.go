// Package http is a thin wrapper over chi + stdlib http.Server
package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"pkgpulse/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server wraps chi and an http.Server with graceful shutdown
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer builds a server on addr; opts receive the *chi.Mux so callers
// can mount middleware and routes
func NewServer(addr string, opts ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr: addr,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Mux returns the underlying chi mux for route mounting
func (s *Server) Mux() *chi.Mux { return s.mux }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run starts the server and blocks until ctx is done or the listener fails.
// Shutdown is graceful with a short drain budget
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	log.Info().Str("addr", s.addr).Msg("http listening")

	errCh := make(chan error, 1)
	go func() {
		err := s.srv.ListenAndServe()
		if err == stdhttp.ErrServerClosed {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		drain, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(drain); err != nil {
			return err
		}
		log.Info().Msg("http stopped")
		return <-errCh
	}
}
