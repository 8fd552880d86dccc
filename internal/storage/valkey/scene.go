package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// SceneStore keeps each project as a hash, its objects as a hash keyed by
// object id plus a list holding their order, and its share list as a set.
type SceneStore struct {
	client valkey.Client
	now    func() time.Time
	logger *slog.Logger
}

var _ storage.SceneStore = (*SceneStore)(nil)

func NewSceneStore(client valkey.Client, logger *slog.Logger) *SceneStore {
	return &SceneStore{
		client: client,
		now:    time.Now,
		logger: logger.With(slog.String("component", "scene_store_valkey")),
	}
}

var createProjectScript = valkey.NewLuaScript(`redis.call('HSET', KEYS[1], unpack(ARGV)) return 1`)

func projectKeys(id string) []string {
	return []string{projectKey(id), objectsKey(id), orderKey(id), sharedWithKey(id)}
}

func (s *SceneStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// GetProject reads the project in one script so the objects and their order
// come from the same instant.
func (s *SceneStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	parts, err := getProjectScript.Exec(ctx, s.client, projectKeys(id), nil).ToArray()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Persist("get project", err)
	}
	if len(parts) != 4 {
		return nil, storage.Persist("get project", fmt.Errorf("unexpected reply of %d parts", len(parts)))
	}

	fields, err := parts[0].AsStrMap()
	if err != nil {
		return nil, storage.Persist("get project", err)
	}
	objects, err := parts[1].AsStrMap()
	if err != nil {
		return nil, storage.Persist("get project", err)
	}
	order, err := parts[2].AsStrSlice()
	if err != nil {
		return nil, storage.Persist("get project", err)
	}
	sharedWith, err := parts[3].AsStrSlice()
	if err != nil {
		return nil, storage.Persist("get project", err)
	}

	p, err := decodeProject(fields, objects, order, sharedWith)
	if err != nil {
		return nil, storage.Persist("get project", err)
	}
	return p, nil
}

func encodeProject(p *models.Project) ([]string, error) {
	camera, err := json.Marshal(p.Camera)
	if err != nil {
		return nil, err
	}
	shared := "0"
	if p.Shared {
		shared = "1"
	}
	return []string{
		"id", p.ID,
		"title", p.Title,
		"ownerId", p.OwnerID,
		"camera", string(camera),
		"shared", shared,
		"createdAt", p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt", p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func decodeProject(fields, objects map[string]string, order, sharedWith []string) (*models.Project, error) {
	p := &models.Project{
		ID:         fields["id"],
		Title:      fields["title"],
		OwnerID:    fields["ownerId"],
		Shared:     fields["shared"] == "1",
		Objects:    make([]models.SceneObject, 0, len(order)),
		SharedWith: append([]string{}, sharedWith...),
	}
	sort.Strings(p.SharedWith)

	if err := json.Unmarshal([]byte(fields["camera"]), &p.Camera); err != nil {
		return nil, fmt.Errorf("decode camera: %w", err)
	}
	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["createdAt"]); err != nil {
		return nil, fmt.Errorf("decode createdAt: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updatedAt"]); err != nil {
		return nil, fmt.Errorf("decode updatedAt: %w", err)
	}

	for _, id := range order {
		raw, ok := objects[id]
		if !ok {
			continue
		}
		var obj models.SceneObject
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("decode object %s: %w", id, err)
		}
		p.Objects = append(p.Objects, obj)
	}
	return p, nil
}

// ListProjectsByOwner returns the owner's projects, most recently updated first.
func (s *SceneStore) ListProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	ids, err := s.client.Do(ctx, s.client.B().Smembers().Key(ownerProjectsKey(ownerID)).Build()).AsStrSlice()
	if err != nil {
		return nil, storage.Persist("list projects", err)
	}

	projects := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			projects = append(projects, p)
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

// CreateProject writes the project hash and then indexes it under its owner.
func (s *SceneStore) CreateProject(ctx context.Context, title, ownerID string) (*models.Project, error) {
	if err := storage.ValidateTitle(title); err != nil {
		return nil, err
	}

	now := s.now().UTC()
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
	args, err := encodeProject(p)
	if err != nil {
		return nil, err
	}
	if err := createProjectScript.Exec(ctx, s.client, []string{projectKey(p.ID)}, args).Error(); err != nil {
		return nil, storage.Persist("create project", err)
	}
	if ownerID != "" {
		cmd := s.client.B().Sadd().Key(ownerProjectsKey(ownerID)).Member(p.ID).Build()
		if err := s.client.Do(ctx, cmd).Error(); err != nil {
			return nil, storage.Persist("index project", err)
		}
	}

	s.logger.Info("project created", slog.String("projectID", p.ID), slog.String("ownerID", ownerID))
	return p, nil
}

// ReplaceProjectObjects overwrites the whole object sequence.
func (s *SceneStore) ReplaceProjectObjects(ctx context.Context, id string, objects []models.SceneObject) (*models.Project, error) {
	if err := storage.ValidateObjects(objects); err != nil {
		return nil, err
	}

	args := make([]string, 0, 1+2*len(objects))
	args = append(args, s.stamp())
	for _, obj := range objects {
		payload, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		args = append(args, obj.ID, string(payload))
	}

	n, err := replaceObjectsScript.Exec(ctx, s.client, []string{projectKey(id), objectsKey(id), orderKey(id)}, args).AsInt64()
	if err != nil {
		return nil, storage.Persist("replace objects", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetProject(ctx, id)
}

func (s *SceneStore) ReplaceCamera(ctx context.Context, id string, camera models.Camera) (bool, error) {
	payload, err := json.Marshal(camera)
	if err != nil {
		return false, err
	}
	n, err := replaceCameraScript.Exec(ctx, s.client, []string{projectKey(id)}, []string{string(payload), s.stamp()}).AsInt64()
	if err != nil {
		return false, storage.Persist("replace camera", err)
	}
	return n == 1, nil
}

func (s *SceneStore) AppendObject(ctx context.Context, id string, obj models.SceneObject) (bool, error) {
	payload, err := json.Marshal(obj)
	if err != nil {
		return false, err
	}
	n, err := appendObjectScript.Exec(ctx, s.client,
		[]string{projectKey(id), objectsKey(id), orderKey(id)},
		[]string{obj.ID, string(payload), s.stamp()},
	).AsInt64()
	switch {
	case err != nil:
		return false, storage.Persist("append object", err)
	case n < 0:
		return false, storage.ErrDuplicate
	}
	return n == 1, nil
}

func (s *SceneStore) ReplaceObjectByID(ctx context.Context, id, objectID string, only models.ObjectKind, obj models.SceneObject) (bool, error) {
	obj.ID = objectID
	payload, err := json.Marshal(obj)
	if err != nil {
		return false, err
	}
	n, err := replaceObjectScript.Exec(ctx, s.client,
		[]string{projectKey(id), objectsKey(id)},
		[]string{objectID, string(payload), s.stamp(), string(only)},
	).AsInt64()
	if err != nil {
		return false, storage.Persist("replace object", err)
	}
	return n == 1, nil
}

func (s *SceneStore) RemoveObjectByID(ctx context.Context, id, objectID string, only models.ObjectKind) (bool, error) {
	n, err := removeObjectScript.Exec(ctx, s.client,
		[]string{projectKey(id), objectsKey(id), orderKey(id)},
		[]string{objectID, s.stamp(), string(only)},
	).AsInt64()
	if err != nil {
		return false, storage.Persist("remove object", err)
	}
	return n == 1, nil
}

// SetSharing toggles sharing on a project owned by ownerID.
func (s *SceneStore) SetSharing(ctx context.Context, id, ownerID string, shared, clearSharedWith bool) (*models.Project, error) {
	n, err := setSharingScript.Exec(ctx, s.client,
		[]string{projectKey(id), sharedWithKey(id)},
		[]string{ownerID, flag(shared), flag(clearSharedWith), s.stamp()},
	).AsInt64()
	if err != nil {
		return nil, storage.Persist("set sharing", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetProject(ctx, id)
}

// DeleteProject drops every key of the project, then its owner index entry.
func (s *SceneStore) DeleteProject(ctx context.Context, id string) (bool, error) {
	owner, err := deleteProjectScript.Exec(ctx, s.client, projectKeys(id), nil).ToString()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, storage.Persist("delete project", err)
	}
	if owner != "" {
		cmd := s.client.B().Srem().Key(ownerProjectsKey(owner)).Member(id).Build()
		if err := s.client.Do(ctx, cmd).Error(); err != nil {
			s.logger.Warn("failed to unindex project", slog.String("projectID", id), slog.Any("error", err))
		}
	}

	s.logger.Info("project deleted", slog.String("projectID", id))
	return true, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
