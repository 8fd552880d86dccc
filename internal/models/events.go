package models

import (
	"encoding/json"
	"time"
)

// Inbound event names.
const (
	EventJoinProject      = "join-project"
	EventCameraMove       = "camera-move"
	EventObjectChange     = "object-change"
	EventAnnotationChange = "annotation-change"
	EventCursorMove       = "cursor-move"
	EventChatMessage      = "chat-message"
)

// Outbound event names.
const (
	EventRoomUsers         = "room-users"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventCameraMoved       = "camera-moved"
	EventObjectChanged     = "object-changed"
	EventAnnotationChanged = "annotation-changed"
	EventCursorMoved       = "cursor-moved"
	EventError             = "error"
)

// ErrorTypeUnknownEvent tags errors for event names the server does not handle.
const ErrorTypeUnknownEvent = "unknown-event"

// Action is the mutation verb carried by object and annotation changes.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinProject struct {
	ProjectID string `json:"projectId"`
	UserName  string `json:"userName,omitempty"`
}

// CameraMove needs both vectors; nil marks one missing from the frame.
type CameraMove struct {
	Position *Vec3 `json:"position"`
	Target   *Vec3 `json:"target"`
}

type ObjectChange struct {
	Action   Action       `json:"action"`
	Object   *SceneObject `json:"object,omitempty"`
	ObjectID string       `json:"objectId,omitempty"`
}

type AnnotationChange struct {
	Action       Action       `json:"action"`
	Annotation   *SceneObject `json:"annotation,omitempty"`
	AnnotationID string       `json:"annotationId,omitempty"`
}

type CursorMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ChatMessage struct {
	Message string `json:"message"`
}

// Outbound payloads embed the sender so receivers can attribute the change.

type CameraMoved struct {
	Participant
	CameraMove
}

type ObjectChanged struct {
	Participant
	ObjectChange
}

type AnnotationChanged struct {
	Participant
	AnnotationChange
}

type CursorMoved struct {
	Participant
	CursorMove
}

type ChatBroadcast struct {
	Participant
	ID      string    `json:"id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// ErrorEvent is unicast to the connection whose event failed.
type ErrorEvent struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
