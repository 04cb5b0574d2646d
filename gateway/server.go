package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-relay/core"
)

// Server binds the proxy and admin handlers onto one listener.
type Server struct {
	addr       string
	httpServer *http.Server
	logger     core.Logger
}

func NewServer(host string, port int, proxy *ProxyHandler, admin *AdminHandler, extras map[string]http.Handler, logger core.Logger) *Server {
	mux := http.NewServeMux()
	if admin != nil {
		mux.Handle("/admin/", admin)
	}
	for pattern, handler := range extras {
		if pattern == "" || handler == nil {
			continue
		}
		mux.Handle(pattern, handler)
	}
	if proxy != nil {
		mux.Handle("/", proxy)
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: glog.Ensure(logger),
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

func (s *Server) Handler() http.Handler {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Handler
}

// Start serves until Shutdown or listener failure. A closed-server error is
// the normal shutdown path and is not reported.
func (s *Server) Start() error {
	if s == nil || s.httpServer == nil {
		return fmt.Errorf("gateway: server is not configured")
	}
	s.logger.Info("gateway listening", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	s.logger.Info("gateway shutting down")
	return s.httpServer.Shutdown(ctx)
}
