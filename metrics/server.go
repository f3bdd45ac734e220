package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics over HTTP for the duration of the migration
// window. The entrypoint replaces its own process image once migration
// completes, so the server only exists while there is something to scrape.
type Server struct {
	srv  *http.Server
	errc chan error
}

// NewServer creates a metrics server on addr, e.g. ":9090".
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		errc: make(chan error, 1),
	}
}

// Start begins serving in the background and returns immediately.
// Bind and listen failures surface through Err, not Start.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.errc <- err
		}
	}()
}

// Err reports a serve failure if one has occurred. It never blocks.
func (s *Server) Err() error {
	select {
	case err := <-s.errc:
		return err
	default:
		return nil
	}
}

// Shutdown stops the server, letting in-flight scrapes finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
