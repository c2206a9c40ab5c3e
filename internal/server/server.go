package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle. The
// device runs two: the web server and the control channel.
type Server struct {
	name       string
	httpServer *http.Server
	ready      chan struct{}
	addr       net.Addr
}

const (
	maxHeaderBytes    = 1 << 16 // 64 KB, the device serves small forms
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

func New(name string) *Server {
	return &Server{name: name, ready: make(chan struct{})}
}

// newHTTPServer builds a configured *http.Server for the given address and handler.
// There is no write timeout: firmware uploads and control sockets are long-lived.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Addr formats a port for listening on every interface.
func Addr(port int) string {
	return ":" + strconv.Itoa(port)
}

// Run listens on addr and serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Run(addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.httpServer = newHTTPServer(addr, handler)
	s.addr = ln.Addr()
	close(s.ready)

	if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// ListenAddr is the bound address, valid after Ready.
func (s *Server) ListenAddr() net.Addr {
	return s.addr
}

func (s *Server) Name() string {
	return s.name
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
