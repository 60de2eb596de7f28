package web

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/marciopocebon/bolt-1/logger"
)

// Server serves the router over HTTP with h2c so HTTP/2 works without
// TLS in front of it, or over HTTPS when a TLS config is supplied.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	log        *logger.Logger
	tlsConfig  *tls.Config
	boundAddr  net.Addr
}

// ServerOption adjusts server construction.
type ServerOption func(*Server)

// WithTLS serves HTTPS with cfg instead of cleartext h2c. HTTP/2 is
// negotiated over ALPN.
func WithTLS(cfg *tls.Config) ServerOption {
	return func(s *Server) { s.tlsConfig = cfg }
}

// NewServer wires handler behind an http.Server on addr.
func NewServer(addr string, handler http.Handler, log *logger.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)

	s := &Server{
		mux: mux,
		log: log.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if s.tlsConfig != nil {
		s.httpServer.Handler = mux
		s.httpServer.TLSConfig = s.tlsConfig
	} else {
		h2s := &http2.Server{
			MaxConcurrentStreams: 250,
			IdleTimeout:          120 * time.Second,
		}
		s.httpServer.Handler = h2c.NewHandler(mux, h2s)
	}
	return s
}

// Handle mounts an extra handler on the root mux, next to the router.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// Start binds the port and begins serving. It returns once the
// listener is bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.boundAddr = listener.Addr()

	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	s.log.Info("HTTP server started", map[string]interface{}{
		"addr":   listener.Addr().String(),
		"scheme": scheme,
	})

	go func() {
		var err error
		if s.tlsConfig != nil {
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	return nil
}

// Stop gracefully shuts the server down with a 5 second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound listen address once started, the configured
// address before that.
func (s *Server) Addr() string {
	if s.boundAddr != nil {
		return s.boundAddr.String()
	}
	return s.httpServer.Addr
}
