// Package presence tracks which participants are connected to which project
// room. It is purely in memory and never blocks on I/O.
package presence

import (
	"log/slog"
	"sync"

	"github.com/Vasu1712/scenyx-collab/internal/models"
)

// Registry maps roomID -> connectionID -> Participant. A single lock makes
// Join, Leave and ListMembers atomic with respect to each other.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]models.Participant
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]models.Participant),
		logger: logger.With(slog.String("component", "presence_registry")),
	}
}

// Join inserts p under its connection id, creating the room on first use.
// Joining again with the same connection id replaces the prior entry.
func (r *Registry) Join(roomID string, p models.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]models.Participant)
		r.rooms[roomID] = room
		r.logger.Debug("room created", slog.String("roomID", roomID))
	}
	room[p.ConnectionID] = p
}

// Leave removes and returns the participant for connectionID. An emptied room
// is dropped from the registry.
func (r *Registry) Leave(roomID, connectionID string) (models.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return models.Participant{}, false
	}
	p, ok := room[connectionID]
	if !ok {
		return models.Participant{}, false
	}
	delete(room, connectionID)

	if len(room) == 0 {
		delete(r.rooms, roomID)
		r.logger.Debug("removed empty room", slog.String("roomID", roomID))
	}
	return p, true
}

// ListMembers returns a snapshot of the room's participants in no particular order.
func (r *Registry) ListMembers(roomID string) []models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	members := make([]models.Participant, 0, len(room))
	for _, p := range room {
		members = append(members, p)
	}
	return members
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) TotalParticipants() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, room := range r.rooms {
		total += len(room)
	}
	return total
}
