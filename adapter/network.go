// Package adapter connects a plugin's lifecycle shim to systems outside the
// simulator: health checkers, metrics scrapers, tracing backends and reload tooling.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/srediag/plugin-xplm/internal/logging"
)

// Server runs an HTTP handler next to the simulator. It never touches the SDK
// itself; handlers must only read state the plugin publishes atomically.
type Server struct {
	srv *http.Server
	ln  net.Listener
	log *logging.Logger
}

// Listen binds address and starts serving h in the background.
func Listen(address string, h http.Handler, log *logging.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("adapter: listen %s: %w", address, err)
	}
	if log == nil {
		log = logging.New("adapter", nil)
	}
	s := &Server{
		srv: &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
		log: log,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("serve %s: %v", ln.Addr(), err)
		}
	}()
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
