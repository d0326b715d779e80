package server

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/BrickTeleop/internal/hub"
)

// Server serves the dashboard, the telemetry WebSocket and a small JSON API.
type Server struct {
	hub        *hub.Hub
	frames     FrameSource
	stopper    hub.Stopper
	addr       string
	logger     *zap.SugaredLogger
	handler    http.Handler
	httpServer *http.Server
}

// New builds the route table and the HTTP server. Nothing listens until
// ListenAndServe is called.
func New(h *hub.Hub, frames FrameSource, stopper hub.Stopper, frontendFS fs.FS, addr string, logger *zap.SugaredLogger) (*Server, error) {
	s := &Server{
		hub:     h,
		frames:  frames,
		stopper: stopper,
		addr:    addr,
		logger:  logger,
	}

	static, err := loadAssets(frontendFS)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWebSocket(s.hub, s.frames, s.stopper, s.logger))
	mux.HandleFunc("/api/state", handleState(s.frames, s.logger))
	mux.HandleFunc("/api/stop", handleStop(s.stopper))
	mux.Handle("/", static)
	s.handler = mux

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until the server fails or Shutdown is called. After
// Shutdown it returns http.ErrServerClosed, even if it had not started yet.
func (s *Server) ListenAndServe() error {
	s.logger.Infow("HTTP server listening", "addr", s.addr)
	return errors.WithStack(s.httpServer.ListenAndServe())
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
