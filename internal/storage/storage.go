// Package storage defines the durable collaborators of the collaboration core:
// the scene store holding project documents and the user directory. Backends
// live in the memory, postgres and valkey subpackages.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vasu1712/scenyx-collab/internal/models"
)

var (
	// ErrValidation marks input the store refuses to persist, such as an empty title.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown project, user or object where a lookup
	// result cannot express absence on its own.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks an insert whose key already exists.
	ErrDuplicate = errors.New("duplicate")
)

// PersistenceError wraps a failure of the backing store itself.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persist wraps err as a PersistenceError for op. A nil err stays nil.
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Validationf builds an ErrValidation with detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// SceneStore persists projects. Per-object mutations are single atomic store
// operations keyed by object id; the boolean result reports whether anything
// changed (false for an unknown project or object). A non-empty only kind
// restricts replace and remove to a stored object of that kind.
type SceneStore interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)
	CreateProject(ctx context.Context, title, ownerID string) (*models.Project, error)
	ReplaceProjectObjects(ctx context.Context, id string, objects []models.SceneObject) (*models.Project, error)
	ReplaceCamera(ctx context.Context, id string, camera models.Camera) (bool, error)
	// AppendObject returns (false, ErrDuplicate) when the id is already present.
	AppendObject(ctx context.Context, id string, obj models.SceneObject) (bool, error)
	ReplaceObjectByID(ctx context.Context, id, objectID string, only models.ObjectKind, obj models.SceneObject) (bool, error)
	RemoveObjectByID(ctx context.Context, id, objectID string, only models.ObjectKind) (bool, error)
	// SetSharing only matches a project owned by ownerID; any mismatch is a nil project.
	SetSharing(ctx context.Context, id, ownerID string, shared, clearSharedWith bool) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)
}

// UserDirectory persists user identities.
type UserDirectory interface {
	FindByName(ctx context.Context, name string) (*models.User, error)
	// CreateUser returns ErrDuplicate when the name is taken.
	CreateUser(ctx context.Context, name string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	// UpdateUser changes the non-empty fields. An unknown id is a nil user;
	// a name held by another user is ErrDuplicate.
	UpdateUser(ctx context.Context, id, name, color string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// ValidateTitle rejects an empty title.
func ValidateTitle(title string) error {
	if title == "" {
		return Validationf("title is required")
	}
	return nil
}

// ValidateObjects rejects a sequence with empty or repeated ids.
func ValidateObjects(objects []models.SceneObject) error {
	seen := make(map[string]struct{}, len(objects))
	for i, obj := range objects {
		if obj.ID == "" {
			return Validationf("object %d has no id", i)
		}
		if _, ok := seen[obj.ID]; ok {
			return Validationf("object id %q appears more than once", obj.ID)
		}
		seen[obj.ID] = struct{}{}
	}
	return nil
}
