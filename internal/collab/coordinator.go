// Package collab is the collaboration core. The Coordinator applies scene
// mutations to the durable store, decides whether to fan them out to the
// project room, and reports failures to the originating connection only.
package collab

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/google/uuid"
)

const maxChatLength = 2000

// Presence is the in-memory room membership the Coordinator maintains.
type Presence interface {
	Join(roomID string, p models.Participant)
	Leave(roomID, connectionID string) (models.Participant, bool)
	ListMembers(roomID string) []models.Participant
}

// Broadcaster delivers events to connections. Delivery is fire-and-forget.
type Broadcaster interface {
	Broadcast(roomID, event string, payload any, excludeConnID string)
	SendToConnection(connID, event string, payload any)
	JoinRoom(connID, roomID string)
	LeaveRoom(connID, roomID string)
}

type Coordinator struct {
	scenes   storage.SceneStore
	users    storage.UserDirectory
	presence Presence
	hub      Broadcaster
	now      func() time.Time
	logger   *slog.Logger
}

func NewCoordinator(scenes storage.SceneStore, users storage.UserDirectory, presence Presence, hub Broadcaster, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		scenes:   scenes,
		users:    users,
		presence: presence,
		hub:      hub,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "coordinator")),
	}
}

// Join resolves the user identity, registers the participant and announces it.
// The joiner receives the other members via room-users; user-joined goes to
// the whole room, the joiner included.
func (c *Coordinator) Join(ctx context.Context, connID string, req models.JoinProject) (models.Participant, error) {
	const errType = models.EventJoinProject

	if req.ProjectID == "" {
		err := storage.Validationf("projectId is required")
		c.reject(connID, errType, err)
		return models.Participant{}, err
	}

	project, err := c.scenes.GetProject(ctx, req.ProjectID)
	if err != nil {
		c.failPersistence(connID, errType, "Failed to join project", err)
		return models.Participant{}, err
	}
	if project == nil {
		c.hub.SendToConnection(connID, models.EventError, models.ErrorEvent{Message: "Project not found", Type: errType})
		return models.Participant{}, storage.ErrNotFound
	}

	user, err := c.resolveUser(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, storage.ErrValidation) {
			c.reject(connID, errType, err)
		} else {
			c.failPersistence(connID, errType, "Failed to join project", err)
		}
		return models.Participant{}, err
	}

	p := models.NewParticipant(user, connID)
	c.hub.JoinRoom(connID, req.ProjectID)
	c.presence.Join(req.ProjectID, p)

	others := make([]models.Participant, 0)
	for _, m := range c.presence.ListMembers(req.ProjectID) {
		if m.ConnectionID != connID {
			others = append(others, m)
		}
	}
	c.hub.SendToConnection(connID, models.EventRoomUsers, others)
	c.hub.Broadcast(req.ProjectID, models.EventUserJoined, p, "")

	c.logger.Info("user joined project",
		slog.String("projectID", req.ProjectID),
		slog.String("userID", p.UserID),
		slog.String("name", p.Name),
		slog.String("connID", connID),
	)
	return p, nil
}

// resolveUser gets or creates the identity for name, synthesizing a guest
// name when none is supplied.
func (c *Coordinator) resolveUser(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = GuestName()
	}

	u, err := c.users.FindByName(ctx, name)
	if err != nil || u != nil {
		return u, err
	}
	u, err = c.users.CreateUser(ctx, name)
	if errors.Is(err, storage.ErrDuplicate) {
		// Lost a create race with another connection using the same name.
		u, err = c.users.FindByName(ctx, name)
		if err == nil && u == nil {
			err = storage.ErrNotFound
		}
	}
	return u, err
}

// GuestName returns a name of the form Guest-xxxxxx.
func GuestName() string {
	return "Guest-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// Leave removes the participant from the room and tells the remaining members.
func (c *Coordinator) Leave(_ context.Context, projectID string, p models.Participant) {
	c.hub.LeaveRoom(p.ConnectionID, projectID)

	removed, ok := c.presence.Leave(projectID, p.ConnectionID)
	if !ok {
		return
	}
	c.hub.Broadcast(projectID, models.EventUserLeft, removed, "")

	c.logger.Info("user left project",
		slog.String("projectID", projectID),
		slog.String("name", removed.Name),
		slog.String("connID", removed.ConnectionID),
	)
}

// CameraMove broadcasts first and persists afterwards; the broadcast does not
// depend on the store outcome. A move missing either vector is rejected.
func (c *Coordinator) CameraMove(ctx context.Context, projectID string, p models.Participant, move models.CameraMove) error {
	if move.Position == nil || move.Target == nil {
		err := storage.Validationf("camera position and target are required")
		c.reject(p.ConnectionID, models.EventCameraMove, err)
		return err
	}
	c.hub.Broadcast(projectID, models.EventCameraMoved, models.CameraMoved{Participant: p, CameraMove: move}, p.ConnectionID)

	ok, err := c.scenes.ReplaceCamera(ctx, projectID, models.Camera{Position: *move.Position, Target: *move.Target})
	if err != nil {
		c.failPersistence(p.ConnectionID, models.EventCameraMove, "Failed to save camera", err)
		return err
	}
	if !ok {
		c.logger.Debug("camera not saved, project missing", slog.String("projectID", projectID))
	}
	return nil
}

// CursorMove is never persisted.
func (c *Coordinator) CursorMove(projectID string, p models.Participant, move models.CursorMove) {
	c.hub.Broadcast(projectID, models.EventCursorMoved, models.CursorMoved{Participant: p, CursorMove: move}, p.ConnectionID)
}

// ChatMessage is never persisted and reaches the whole room, sender included.
func (c *Coordinator) ChatMessage(projectID string, p models.Participant, msg models.ChatMessage) error {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		err := storage.Validationf("message is required")
		c.reject(p.ConnectionID, models.EventChatMessage, err)
		return err
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		err := storage.Validationf("message exceeds %d characters", maxChatLength)
		c.reject(p.ConnectionID, models.EventChatMessage, err)
		return err
	}

	c.hub.Broadcast(projectID, models.EventChatMessage, models.ChatBroadcast{
		Participant: p,
		ID:          uuid.NewString(),
		Message:     text,
		SentAt:      c.now().UTC(),
	}, "")
	return nil
}

// ObjectChange persists an object mutation and, only if it changed the
// project, forwards it to the other members.
func (c *Coordinator) ObjectChange(ctx context.Context, projectID string, p models.Participant, change models.ObjectChange) error {
	applied, err := c.applyObject(ctx, projectID, p, models.EventObjectChange, change.Action, change.ObjectID, change.Object, false)
	if err != nil || !applied {
		return err
	}
	c.hub.Broadcast(projectID, models.EventObjectChanged, models.ObjectChanged{Participant: p, ObjectChange: change}, p.ConnectionID)
	return nil
}

// AnnotationChange follows the object rules; annotations share the object
// sequence and are stored with kind annotation. Update and delete only match
// an existing annotation, so a plain object with the same id is left alone.
func (c *Coordinator) AnnotationChange(ctx context.Context, projectID string, p models.Participant, change models.AnnotationChange) error {
	applied, err := c.applyObject(ctx, projectID, p, models.EventAnnotationChange, change.Action, change.AnnotationID, change.Annotation, true)
	if err != nil || !applied {
		return err
	}
	c.hub.Broadcast(projectID, models.EventAnnotationChanged, models.AnnotationChanged{Participant: p, AnnotationChange: change}, p.ConnectionID)
	return nil
}

// applyObject runs one atomic per-id store operation. It reports whether the
// project changed. Duplicates and misses are no-ops, not errors.
func (c *Coordinator) applyObject(ctx context.Context, projectID string, p models.Participant, errType string, action models.Action, targetID string, obj *models.SceneObject, annotation bool) (bool, error) {
	log := c.logger.With(
		slog.String("projectID", projectID),
		slog.String("connID", p.ConnectionID),
		slog.String("event", errType),
		slog.String("action", string(action)),
	)

	var (
		ok  bool
		err error
	)
	var only models.ObjectKind
	if annotation {
		only = models.KindAnnotation
	}

	switch action {
	case models.ActionAdd, models.ActionUpdate:
		if verr := validateObject(obj, action, annotation); verr != nil {
			c.reject(p.ConnectionID, errType, verr)
			return false, verr
		}
		switch {
		case annotation:
			obj.Kind = models.KindAnnotation
		case obj.Kind == "":
			obj.Kind = models.KindPrimitive
		}
		if action == models.ActionAdd {
			if obj.AuthorUserID == "" {
				obj.AuthorUserID = p.UserID
			}
			if obj.CreatedAt.IsZero() {
				obj.CreatedAt = c.now().UTC()
			}
			ok, err = c.scenes.AppendObject(ctx, projectID, *obj)
		} else {
			ok, err = c.scenes.ReplaceObjectByID(ctx, projectID, obj.ID, only, *obj)
		}
		targetID = obj.ID

	case models.ActionDelete:
		if targetID == "" {
			verr := storage.Validationf("id is required for delete")
			c.reject(p.ConnectionID, errType, verr)
			return false, verr
		}
		ok, err = c.scenes.RemoveObjectByID(ctx, projectID, targetID, only)

	default:
		verr := storage.Validationf("unknown action %q", action)
		c.reject(p.ConnectionID, errType, verr)
		return false, verr
	}

	switch {
	case errors.Is(err, storage.ErrDuplicate):
		log.Warn("object already exists, skipping add", slog.String("objectID", targetID))
		return false, nil
	case err != nil:
		c.failPersistence(p.ConnectionID, errType, syncFailureMessage(errType), err)
		return false, err
	case !ok:
		log.Debug("mutation was a no-op", slog.String("objectID", targetID))
		return false, nil
	}
	log.Debug("mutation applied", slog.String("objectID", targetID))
	return true, nil
}

// validateObject checks obj without changing it. An update replaces the whole
// object, so only an add may leave the type empty.
func validateObject(obj *models.SceneObject, action models.Action, annotation bool) error {
	if obj == nil || obj.ID == "" {
		return storage.Validationf("object with an id is required")
	}
	if len(obj.Normal) > 3 {
		return storage.Validationf("normal must have at most 3 coordinates")
	}
	if annotation {
		return nil
	}
	switch obj.Kind {
	case models.KindPrimitive, models.KindMesh, models.KindAnnotation:
		return nil
	case "":
		if action == models.ActionAdd {
			return nil
		}
		return storage.Validationf("object type is required for update")
	}
	return storage.Validationf("unknown object type %q", obj.Kind)
}

func syncFailureMessage(errType string) string {
	if errType == models.EventAnnotationChange {
		return "Failed to sync annotation change"
	}
	return "Failed to sync object change"
}

// EnableSharing marks the project shared. A nil project means the project
// does not exist or is not owned by ownerID; the two are indistinguishable.
func (c *Coordinator) EnableSharing(ctx context.Context, projectID, ownerID string) (*models.Project, error) {
	return c.setSharing(ctx, projectID, ownerID, true)
}

// DisableSharing unshares the project and clears its share list.
func (c *Coordinator) DisableSharing(ctx context.Context, projectID, ownerID string) (*models.Project, error) {
	return c.setSharing(ctx, projectID, ownerID, false)
}

func (c *Coordinator) setSharing(ctx context.Context, projectID, ownerID string, shared bool) (*models.Project, error) {
	if projectID == "" || ownerID == "" {
		return nil, storage.Validationf("project id and owner id are required")
	}
	p, err := c.scenes.SetSharing(ctx, projectID, ownerID, shared, !shared)
	if err != nil {
		c.logger.Error("failed to update sharing", slog.String("projectID", projectID), slog.Any("error", err))
		return nil, err
	}
	if p != nil {
		c.logger.Info("sharing updated", slog.String("projectID", projectID), slog.Bool("shared", shared))
	}
	return p, nil
}

// SharedProject returns the project only while sharing is enabled.
func (c *Coordinator) SharedProject(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := c.scenes.GetProject(ctx, projectID)
	if err != nil || p == nil || !p.Shared {
		return nil, err
	}
	return p, nil
}

// Members returns the participants currently present in a project room.
func (c *Coordinator) Members(projectID string) []models.Participant {
	return c.presence.ListMembers(projectID)
}

func (c *Coordinator) reject(connID, errType string, err error) {
	c.logger.Warn("rejected event", slog.String("connID", connID), slog.String("event", errType), slog.Any("error", err))
	c.hub.SendToConnection(connID, models.EventError, models.ErrorEvent{Message: err.Error(), Type: errType})
}

func (c *Coordinator) failPersistence(connID, errType, message string, err error) {
	c.logger.Error(message, slog.String("connID", connID), slog.String("event", errType), slog.Any("error", err))
	c.hub.SendToConnection(connID, models.EventError, models.ErrorEvent{Message: message, Type: errType})
}
