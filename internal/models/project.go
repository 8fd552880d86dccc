package models

import (
	"encoding/json"
	"time"
)

// ObjectKind distinguishes plain scene geometry from annotations. Both live in
// the same ordered object sequence of a project.
type ObjectKind string

const (
	KindPrimitive  ObjectKind = "primitive"
	KindMesh       ObjectKind = "mesh"
	KindAnnotation ObjectKind = "annotation"
)

// Vec3 is a position, rotation, scale or direction triple.
type Vec3 [3]float64

// Camera is the single shared viewpoint of a project (last writer wins).
type Camera struct {
	Position Vec3 `json:"position"`
	Target   Vec3 `json:"target"`
}

// DefaultCamera returns the camera every new project starts with.
func DefaultCamera() Camera {
	return Camera{
		Position: Vec3{8, 6, 8},
		Target:   Vec3{0, 0, 0},
	}
}

// SceneObject is one element of a project's scene. GeometryPayload is opaque to
// the server and only present for meshes; Text, Normal and TargetObjectID are
// annotation fields.
type SceneObject struct {
	ID              string          `json:"id"`
	Kind            ObjectKind      `json:"type"`
	Name            string          `json:"name"`
	Visible         bool            `json:"visible"`
	Position        Vec3            `json:"position"`
	Rotation        Vec3            `json:"rotation"`
	Scale           Vec3            `json:"scale"`
	GeometryPayload json.RawMessage `json:"geometryJson,omitempty"`
	Text            string          `json:"text,omitempty"`
	Normal          []float64       `json:"normal,omitempty"`
	TargetObjectID  string          `json:"targetObjectId,omitempty"`
	AuthorUserID    string          `json:"userId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Project is the durable scene document.
type Project struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	OwnerID    string        `json:"ownerId"`
	Objects    []SceneObject `json:"objects"`
	Camera     Camera        `json:"camera"`
	Shared     bool          `json:"shared"`
	SharedWith []string      `json:"sharedWith"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy so callers never alias store-owned slices.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Objects = make([]SceneObject, len(p.Objects))
	for i, obj := range p.Objects {
		out.Objects[i] = obj.Clone()
	}
	out.SharedWith = append([]string{}, p.SharedWith...)
	return &out
}

// Clone returns a deep copy of the object.
func (o SceneObject) Clone() SceneObject {
	if o.GeometryPayload != nil {
		o.GeometryPayload = append(json.RawMessage(nil), o.GeometryPayload...)
	}
	if o.Normal != nil {
		o.Normal = append([]float64(nil), o.Normal...)
	}
	return o
}

// IndexOf returns the position of the object with the given id, or -1.
func (p *Project) IndexOf(objectID string) int {
	for i := range p.Objects {
		if p.Objects[i].ID == objectID {
			return i
		}
	}
	return -1
}
