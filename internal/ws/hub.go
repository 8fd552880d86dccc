package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Vasu1712/scenyx-collab/internal/models"
)

// Hub owns every live connection and the transport-level room sets used for
// fan-out. Delivery only enqueues onto a connection's buffered Send channel,
// so Broadcast never blocks on the network and a single connection always
// receives events in the order they were broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // connectionID -> client
	rooms   map[string]map[string]*Client // roomID -> connectionID -> client
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  logger.With(slog.String("component", "hub")),
	}
}

// Register makes the client addressable by its connection id.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.logger.Debug("client registered", slog.String("connID", c.ID))
}

// Unregister removes the client from every room and closes its Send channel.
// Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	for roomID := range c.rooms {
		h.removeFromRoomLocked(c.ID, roomID)
	}
	close(c.Send)
	h.logger.Debug("client unregistered", slog.String("connID", c.ID))
}

// JoinRoom adds a registered connection to a room's delivery set.
func (h *Hub) JoinRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][connID] = c
	c.rooms[roomID] = struct{}{}
}

// LeaveRoom removes a connection from a room's delivery set.
func (h *Hub) LeaveRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(connID, roomID)
}

func (h *Hub) removeFromRoomLocked(connID, roomID string) {
	if room, ok := h.rooms[roomID]; ok {
		if c, ok := room[connID]; ok {
			delete(c.rooms, roomID)
		}
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast delivers event to every connection in roomID except excludeConnID
// (pass "" to exclude no one). Connections whose queue is full are dropped.
func (h *Hub) Broadcast(roomID, event string, payload any, excludeConnID string) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.String("event", event), slog.Any("error", err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for id, c := range h.rooms[roomID] {
		if id == excludeConnID {
			continue
		}
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	h.dropSlow(slow)
}

// SendToConnection unicasts event to a single connection.
func (h *Hub) SendToConnection(connID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode message", slog.String("event", event), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	delivered := !ok || c.enqueue(data)
	h.mu.RUnlock()

	if !delivered {
		h.dropSlow([]*Client{c})
	}
}

func (h *Hub) dropSlow(slow []*Client) {
	for _, c := range slow {
		h.logger.Warn("send buffer full, dropping connection", slog.String("connID", c.ID))
		h.Unregister(c)
	}
}

// CloseAll unregisters every connection. Each write pump then sends a close
// frame, and the read pumps run their sessions' leave protocol.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
	h.logger.Info("closed all connections", slog.Int("count", len(clients)))
}

// RoomSize reports how many connections are in a room's delivery set.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(event string, payload any) ([]byte, error) {
	env := models.Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
