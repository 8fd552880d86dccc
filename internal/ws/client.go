package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Session receives one connection's inbound events, strictly in arrival order.
type Session interface {
	Handle(ctx context.Context, event string, data json.RawMessage)
	Close(ctx context.Context)
}

// SessionOpener creates the Session for a newly accepted connection.
type SessionOpener interface {
	Open(connID string) Session
}

// ClientConfig tunes a single connection.
type ClientConfig struct {
	SendBuffer     int
	MaxMessageSize int64
	MessageRate    rate.Limit
	MessageBurst   int
}

// Client represents a single websocket connection. rooms is guarded by hub.mu.
type Client struct {
	ID      string
	Send    chan []byte
	Conn    *websocket.Conn
	hub     *Hub
	rooms   map[string]struct{}
	cfg     ClientConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Client for conn. It is not registered with the hub yet.
func NewClient(hub *Hub, conn *websocket.Conn, id string, cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	limit := cfg.MessageRate
	if limit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		ID:      id,
		Send:    make(chan []byte, cfg.SendBuffer),
		Conn:    conn,
		hub:     hub,
		rooms:   make(map[string]struct{}),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.MessageBurst),
		logger:  logger.With(slog.String("connID", id)),
	}
}

func (c *Client) enqueue(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// ReadPump feeds inbound frames to session until the connection fails, then
// closes the session and unregisters the client.
func (c *Client) ReadPump(ctx context.Context, session Session) {
	defer func() {
		session.Close(ctx)
		c.hub.Unregister(c)
		c.Conn.Close()
		c.logger.Info("read pump closed")
	}()

	if c.cfg.MaxMessageSize > 0 {
		c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", slog.Any("error", err))
			}
			return
		}
		c.dispatch(ctx, session, message)
	}
}

func (c *Client) dispatch(ctx context.Context, session Session, message []byte) {
	var env models.Envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
		c.hub.SendToConnection(c.ID, models.EventError, models.ErrorEvent{
			Message: "Malformed message",
			Type:    "invalid-message",
		})
		return
	}
	if !c.limiter.Allow() {
		c.logger.Debug("rate limited, dropping message", slog.String("event", env.Event))
		return
	}
	session.Handle(ctx, env.Event, env.Data)
}

// WritePump writes queued messages to the websocket connection, one frame per
// message, and keeps the peer alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SessionOpenerFunc adapts a function to SessionOpener.
type SessionOpenerFunc func(connID string) Session

func (f SessionOpenerFunc) Open(connID string) Session { return f(connID) }
