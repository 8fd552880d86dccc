package collab

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Vasu1712/scenyx-collab/internal/models"
)

// Session carries one connection's presence between events. It is driven by
// the connection's read loop, so its events are processed in arrival order
// and it needs no locking.
type Session struct {
	coord       *Coordinator
	connID      string
	projectID   string
	participant models.Participant
	joined      bool
	logger      *slog.Logger
}

// OpenSession starts the session for a new connection.
func (c *Coordinator) OpenSession(connID string) *Session {
	return &Session{
		coord:  c,
		connID: connID,
		logger: c.logger.With(slog.String("connID", connID)),
	}
}

// Participant returns the joined participant and its project.
func (s *Session) Participant() (models.Participant, string, bool) {
	return s.participant, s.projectID, s.joined
}

// Handle decodes and routes one inbound event.
func (s *Session) Handle(ctx context.Context, event string, data json.RawMessage) {
	s.logger.Debug("event received", slog.String("event", event))

	if event == models.EventJoinProject {
		var req models.JoinProject
		if !s.decode(event, data, &req) {
			return
		}
		if s.joined {
			s.leave(ctx)
		}
		p, err := s.coord.Join(ctx, s.connID, req)
		if err != nil {
			return
		}
		s.participant, s.projectID, s.joined = p, req.ProjectID, true
		return
	}

	switch event {
	case models.EventCameraMove, models.EventObjectChange, models.EventAnnotationChange,
		models.EventCursorMove, models.EventChatMessage:
		if !s.joined {
			s.coord.hub.SendToConnection(s.connID, models.EventError, models.ErrorEvent{
				Message: "Join a project first",
				Type:    event,
			})
			return
		}
	default:
		s.coord.hub.SendToConnection(s.connID, models.EventError, models.ErrorEvent{
			Message: "Unknown event " + event,
			Type:    models.ErrorTypeUnknownEvent,
		})
		return
	}

	switch event {
	case models.EventCameraMove:
		var move models.CameraMove
		if s.decode(event, data, &move) {
			s.coord.CameraMove(ctx, s.projectID, s.participant, move)
		}
	case models.EventObjectChange:
		var change models.ObjectChange
		if s.decode(event, data, &change) {
			s.coord.ObjectChange(ctx, s.projectID, s.participant, change)
		}
	case models.EventAnnotationChange:
		var change models.AnnotationChange
		if s.decode(event, data, &change) {
			s.coord.AnnotationChange(ctx, s.projectID, s.participant, change)
		}
	case models.EventCursorMove:
		var move models.CursorMove
		if s.decode(event, data, &move) {
			s.coord.CursorMove(s.projectID, s.participant, move)
		}
	case models.EventChatMessage:
		var msg models.ChatMessage
		if s.decode(event, data, &msg) {
			s.coord.ChatMessage(s.projectID, s.participant, msg)
		}
	}
}

// Close runs the leave protocol when the connection goes away.
func (s *Session) Close(ctx context.Context) {
	if s.joined {
		s.leave(ctx)
	}
}

func (s *Session) leave(ctx context.Context) {
	s.coord.Leave(ctx, s.projectID, s.participant)
	s.participant, s.projectID, s.joined = models.Participant{}, "", false
}

func (s *Session) decode(event string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("invalid payload", slog.String("event", event), slog.Any("error", err))
		s.coord.hub.SendToConnection(s.connID, models.EventError, models.ErrorEvent{
			Message: "Invalid payload",
			Type:    event,
		})
		return false
	}
	return true
}
