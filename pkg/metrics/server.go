package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server exposes a Metrics registry over HTTP for scraping.
type Server struct {
	Router *mux.Router
	srv    *http.Server
}

// NewServer routes GET /metrics on addr to m. Requests are logged to w in
// Apache Common Log Format.
func NewServer(m *Metrics, addr string, w io.Writer) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	return &Server{
		Router: router,
		srv: &http.Server{
			Handler:      handlers.LoggingHandler(w, router),
			Addr:         addr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		},
	}
}

// Handler returns the logged router.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
