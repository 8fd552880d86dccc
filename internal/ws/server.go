package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to websocket connections and wires each one
// to a Session.
type Server struct {
	ctx      context.Context
	hub      *Hub
	sessions SessionOpener
	cfg      ClientConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer builds a Server. ctx bounds store calls made on behalf of every
// connection; allowedOrigins may contain "*".
func NewServer(ctx context.Context, hub *Hub, sessions SessionOpener, cfg ClientConfig, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		ctx:      ctx,
		hub:      hub,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "ws_server")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return s
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", slog.Any("error", err))
		return
	}

	client := NewClient(s.hub, conn, uuid.NewString(), s.cfg, s.logger)
	s.hub.Register(client)
	s.logger.Info("connection established", slog.String("connID", client.ID), slog.String("remote", r.RemoteAddr))

	go client.WritePump()
	go client.ReadPump(s.ctx, s.sessions.Open(client.ID))
}
