package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type UserStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.UserDirectory = (*UserStore)(nil)

func NewUserStore(db *sql.DB, logger *slog.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store_postgres")),
	}
}

func (s *UserStore) FindByName(ctx context.Context, name string) (*models.User, error) {
	return s.getOne(ctx, "find user", `SELECT id, name, color, created_at FROM users WHERE name = $1`, name)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, "get user", `SELECT id, name, color, created_at FROM users WHERE id = $1`, id)
}

func (s *UserStore) getOne(ctx context.Context, op, query string, arg string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Color, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Persist(op, err)
	}
	return u, nil
}

// CreateUser inserts a user with a palette color. The unique name column
// settles concurrent creates of the same name.
func (s *UserStore) CreateUser(ctx context.Context, name string) (*models.User, error) {
	if name == "" {
		return nil, storage.Validationf("name is required")
	}

	u := &models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Color: storage.RandomColor(),
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, name, color) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING RETURNING created_at`,
		u.ID, u.Name, u.Color,
	).Scan(&u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, storage.Persist("create user", err)
	}

	s.logger.Info("user created", slog.String("userID", u.ID), slog.String("name", name))
	return u, nil
}

// ListUsers returns every user, newest first.
func (s *UserStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, storage.Persist("list users", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Color, &u.CreatedAt); err != nil {
			return nil, storage.Persist("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Persist("list users", err)
	}
	return users, nil
}

// UpdateUser keeps a column when its argument is empty. The unique name
// column rejects a rename onto another user's name.
func (s *UserStore) UpdateUser(ctx context.Context, id, name, color string) (*models.User, error) {
	if err := storage.ValidateColor(color); err != nil {
		return nil, err
	}

	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET name = COALESCE(NULLIF($2, ''), name), color = COALESCE(NULLIF($3, ''), color)
		 WHERE id = $1 RETURNING id, name, color, created_at`,
		id, name, color,
	).Scan(&u.ID, &u.Name, &u.Color, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, storage.Persist("update user", err)
	}

	s.logger.Info("user updated", slog.String("userID", id))
	return u, nil
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	ok, err := affected("delete user", res, err)
	if ok {
		s.logger.Info("user deleted", slog.String("userID", id))
	}
	return ok, err
}
