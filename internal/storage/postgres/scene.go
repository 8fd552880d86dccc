package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SceneStore keeps projects in the projects table and their objects as JSONB
// rows in scene_objects. Every per-object mutation is a single statement.
type SceneStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.SceneStore = (*SceneStore)(nil)

func NewSceneStore(db *sql.DB, logger *slog.Logger) *SceneStore {
	return &SceneStore{
		db:     db,
		logger: logger.With(slog.String("component", "scene_store_postgres")),
	}
}

const projectColumns = `id, title, owner_id, camera, shared, shared_with, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	var camera []byte
	err := row.Scan(&p.ID, &p.Title, &p.OwnerID, &camera, &p.Shared, pq.Array(&p.SharedWith), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(camera, &p.Camera); err != nil {
		return nil, fmt.Errorf("decode camera: %w", err)
	}
	if p.SharedWith == nil {
		p.SharedWith = []string{}
	}
	p.Objects = []models.SceneObject{}
	return p, nil
}

// GetProject reads the project and its objects from one snapshot.
func (s *SceneStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, storage.Persist("get project", err)
	}
	defer tx.Rollback()

	p, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Persist("get project", err)
	}

	objects, err := loadObjects(ctx, tx, []string{id})
	if err != nil {
		return nil, storage.Persist("get project objects", err)
	}
	p.Objects = append(p.Objects, objects[id]...)
	return p, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadObjects returns the ordered objects of each project id.
func loadObjects(ctx context.Context, q queryer, projectIDs []string) (map[string][]models.SceneObject, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT project_id, payload FROM scene_objects WHERE project_id = ANY($1) ORDER BY project_id, seq`,
		pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.SceneObject, len(projectIDs))
	for rows.Next() {
		var (
			projectID string
			payload   []byte
			obj       models.SceneObject
		)
		if err := rows.Scan(&projectID, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, fmt.Errorf("decode object in project %s: %w", projectID, err)
		}
		out[projectID] = append(out[projectID], obj)
	}
	return out, rows.Err()
}

// ListProjectsByOwner returns the owner's projects, most recently updated first.
func (s *SceneStore) ListProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, storage.Persist("list projects", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, storage.Persist("list projects", err)
	}
	projects := []*models.Project{}
	ids := []string{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, storage.Persist("list projects", err)
		}
		projects = append(projects, p)
		ids = append(ids, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storage.Persist("list projects", err)
	}
	if len(ids) == 0 {
		return projects, nil
	}

	objects, err := loadObjects(ctx, tx, ids)
	if err != nil {
		return nil, storage.Persist("list project objects", err)
	}
	for _, p := range projects {
		p.Objects = append(p.Objects, objects[p.ID]...)
	}
	return projects, nil
}

// CreateProject inserts an empty project with the default camera.
func (s *SceneStore) CreateProject(ctx context.Context, title, ownerID string) (*models.Project, error) {
	if err := storage.ValidateTitle(title); err != nil {
		return nil, err
	}

	p := &models.Project{
		ID:         uuid.NewString(),
		Title:      title,
		OwnerID:    ownerID,
		Objects:    []models.SceneObject{},
		Camera:     models.DefaultCamera(),
		SharedWith: []string{},
	}
	camera, err := json.Marshal(p.Camera)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO projects (id, title, owner_id, camera) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		p.ID, p.Title, p.OwnerID, camera,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, storage.Persist("create project", err)
	}

	s.logger.Info("project created", slog.String("projectID", p.ID), slog.String("ownerID", ownerID))
	return p, nil
}

// ReplaceProjectObjects overwrites the whole object sequence in one transaction.
func (s *SceneStore) ReplaceProjectObjects(ctx context.Context, id string, objects []models.SceneObject) (*models.Project, error) {
	if err := storage.ValidateObjects(objects); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storage.Persist("replace objects", err)
	}
	defer tx.Rollback()

	// Locks the project row so concurrent per-object writes wait for us.
	res, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return nil, storage.Persist("replace objects", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scene_objects WHERE project_id = $1`, id); err != nil {
		return nil, storage.Persist("replace objects", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scene_objects (project_id, object_id, payload) VALUES ($1, $2, $3)`)
	if err != nil {
		return nil, storage.Persist("replace objects", err)
	}
	defer stmt.Close()
	for _, obj := range objects {
		payload, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, id, obj.ID, payload); err != nil {
			return nil, storage.Persist("replace objects", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storage.Persist("replace objects", err)
	}
	return s.GetProject(ctx, id)
}

// ReplaceCamera sets the project camera.
func (s *SceneStore) ReplaceCamera(ctx context.Context, id string, camera models.Camera) (bool, error) {
	payload, err := json.Marshal(camera)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET camera = $2, updated_at = NOW() WHERE id = $1`, id, payload)
	return affected("replace camera", res, err)
}

// AppendObject inserts obj at the end of the sequence. The insert and the
// project timestamp bump are one statement; ON CONFLICT makes a concurrent
// add of the same id lose cleanly.
func (s *SceneStore) AppendObject(ctx context.Context, id string, obj models.SceneObject) (bool, error) {
	payload, err := json.Marshal(obj)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		WITH ins AS (
			INSERT INTO scene_objects (project_id, object_id, payload)
			SELECT $1, $2, $3 WHERE EXISTS (SELECT 1 FROM projects WHERE id = $1)
			ON CONFLICT (project_id, object_id) DO NOTHING
			RETURNING project_id
		)
		UPDATE projects SET updated_at = NOW() WHERE id IN (SELECT project_id FROM ins)`,
		id, obj.ID, payload)
	ok, err := affected("append object", res, err)
	if err != nil || ok {
		return ok, err
	}

	// Nothing inserted: either the project is gone or the id was taken.
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, storage.Persist("append object", err)
	}
	if exists {
		return false, storage.ErrDuplicate
	}
	return false, nil
}

// ReplaceObjectByID overwrites the payload of the matching object in place.
func (s *SceneStore) ReplaceObjectByID(ctx context.Context, id, objectID string, only models.ObjectKind, obj models.SceneObject) (bool, error) {
	obj.ID = objectID
	payload, err := json.Marshal(obj)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		WITH upd AS (
			UPDATE scene_objects SET payload = $3
			WHERE project_id = $1 AND object_id = $2
				AND ($4::text = '' OR payload->>'type' = $4::text)
			RETURNING project_id
		)
		UPDATE projects SET updated_at = NOW() WHERE id IN (SELECT project_id FROM upd)`,
		id, objectID, payload, string(only))
	return affected("replace object", res, err)
}

// RemoveObjectByID deletes the matching object.
func (s *SceneStore) RemoveObjectByID(ctx context.Context, id, objectID string, only models.ObjectKind) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		WITH del AS (
			DELETE FROM scene_objects
			WHERE project_id = $1 AND object_id = $2
				AND ($3::text = '' OR payload->>'type' = $3::text)
			RETURNING project_id
		)
		UPDATE projects SET updated_at = NOW() WHERE id IN (SELECT project_id FROM del)`,
		id, objectID, string(only))
	return affected("remove object", res, err)
}

// SetSharing toggles sharing on a project owned by ownerID.
func (s *SceneStore) SetSharing(ctx context.Context, id, ownerID string, shared, clearSharedWith bool) (*models.Project, error) {
	if ownerID == "" {
		return nil, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET shared = $3,
			shared_with = CASE WHEN $4::boolean THEN '{}'::text[] ELSE shared_with END,
			updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`,
		id, ownerID, shared, clearSharedWith)
	ok, err := affected("set sharing", res, err)
	if err != nil || !ok {
		return nil, err
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes the project; its objects go with it by cascade.
func (s *SceneStore) DeleteProject(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	ok, err := affected("delete project", res, err)
	if ok {
		s.logger.Info("project deleted", slog.String("projectID", id))
	}
	return ok, err
}

func affected(op string, res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, storage.Persist(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storage.Persist(op, err)
	}
	return n > 0, nil
}
