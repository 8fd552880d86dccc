package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/google/uuid"
)

// SceneStore manages project documents in memory. Every method holds the
// store lock for its whole duration, so each call is one atomic operation.
type SceneStore struct {
	mu         sync.RWMutex
	projects   map[string]*models.Project // projectID -> project
	ownerIndex map[string][]string        // ownerID -> []projectID
	now        func() time.Time
	logger     *slog.Logger
}

var _ storage.SceneStore = (*SceneStore)(nil)

// NewSceneStore creates an empty SceneStore.
func NewSceneStore(logger *slog.Logger) *SceneStore {
	return &SceneStore{
		projects:   make(map[string]*models.Project),
		ownerIndex: make(map[string][]string),
		now:        time.Now,
		logger:     logger.With(slog.String("component", "scene_store_memory")),
	}
}

// GetProject returns a copy of the project, or nil if it does not exist.
func (s *SceneStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.projects[id].Clone(), nil
}

// ListProjectsByOwner returns the owner's projects, most recently updated first.
func (s *SceneStore) ListProjectsByOwner(_ context.Context, ownerID string) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Project, 0, len(s.ownerIndex[ownerID]))
	for _, id := range s.ownerIndex[ownerID] {
		if p, ok := s.projects[id]; ok {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// CreateProject stores a new empty project with the default camera.
func (s *SceneStore) CreateProject(_ context.Context, title, ownerID string) (*models.Project, error) {
	if err := storage.ValidateTitle(title); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &models.Project{
		ID:         uuid.NewString(),
		Title:      title,
		OwnerID:    ownerID,
		Objects:    []models.SceneObject{},
		Camera:     models.DefaultCamera(),
		SharedWith: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.projects[p.ID] = p
	if ownerID != "" {
		s.ownerIndex[ownerID] = append(s.ownerIndex[ownerID], p.ID)
	}

	s.logger.Info("project created", slog.String("projectID", p.ID), slog.String("ownerID", ownerID))
	return p.Clone(), nil
}

// ReplaceProjectObjects overwrites the whole object sequence.
func (s *SceneStore) ReplaceProjectObjects(_ context.Context, id string, objects []models.SceneObject) (*models.Project, error) {
	if err := storage.ValidateObjects(objects); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	p.Objects = make([]models.SceneObject, len(objects))
	for i, obj := range objects {
		p.Objects[i] = obj.Clone()
	}
	p.UpdatedAt = s.now()
	return p.Clone(), nil
}

// ReplaceCamera sets the project camera.
func (s *SceneStore) ReplaceCamera(_ context.Context, id string, camera models.Camera) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return false, nil
	}
	p.Camera = camera
	p.UpdatedAt = s.now()
	return true, nil
}

// AppendObject adds obj at the end of the sequence unless its id is taken.
func (s *SceneStore) AppendObject(_ context.Context, id string, obj models.SceneObject) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return false, nil
	}
	if p.IndexOf(obj.ID) >= 0 {
		return false, storage.ErrDuplicate
	}
	p.Objects = append(p.Objects, obj.Clone())
	p.UpdatedAt = s.now()
	return true, nil
}

// ReplaceObjectByID swaps the object with the matching id in place.
func (s *SceneStore) ReplaceObjectByID(_ context.Context, id, objectID string, only models.ObjectKind, obj models.SceneObject) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return false, nil
	}
	i := p.IndexOf(objectID)
	if i < 0 || !kindMatches(p.Objects[i], only) {
		return false, nil
	}
	obj = obj.Clone()
	obj.ID = objectID
	p.Objects[i] = obj
	p.UpdatedAt = s.now()
	return true, nil
}

// RemoveObjectByID drops the object with the matching id.
func (s *SceneStore) RemoveObjectByID(_ context.Context, id, objectID string, only models.ObjectKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return false, nil
	}
	i := p.IndexOf(objectID)
	if i < 0 || !kindMatches(p.Objects[i], only) {
		return false, nil
	}
	p.Objects = append(p.Objects[:i], p.Objects[i+1:]...)
	p.UpdatedAt = s.now()
	return true, nil
}

func kindMatches(obj models.SceneObject, only models.ObjectKind) bool {
	return only == "" || obj.Kind == only
}

// SetSharing toggles sharing on a project owned by ownerID.
func (s *SceneStore) SetSharing(_ context.Context, id, ownerID string, shared, clearSharedWith bool) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok || ownerID == "" || p.OwnerID != ownerID {
		return nil, nil
	}
	p.Shared = shared
	if clearSharedWith {
		p.SharedWith = []string{}
	}
	p.UpdatedAt = s.now()
	return p.Clone(), nil
}

// DeleteProject removes the project and its owner index entry.
func (s *SceneStore) DeleteProject(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return false, nil
	}
	delete(s.projects, id)

	owned := s.ownerIndex[p.OwnerID]
	for i, pid := range owned {
		if pid == id {
			s.ownerIndex[p.OwnerID] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	if len(s.ownerIndex[p.OwnerID]) == 0 {
		delete(s.ownerIndex, p.OwnerID)
	}

	s.logger.Info("project deleted", slog.String("projectID", id))
	return true, nil
}
