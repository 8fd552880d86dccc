package valkey

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Vasu1712/scenyx-collab/internal/models"
	"github.com/Vasu1712/scenyx-collab/internal/storage"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type UserStore struct {
	client valkey.Client
	logger *slog.Logger
}

var _ storage.UserDirectory = (*UserStore)(nil)

func NewUserStore(client valkey.Client, logger *slog.Logger) *UserStore {
	return &UserStore{
		client: client,
		logger: logger.With(slog.String("component", "user_store_valkey")),
	}
}

func (s *UserStore) FindByName(ctx context.Context, name string) (*models.User, error) {
	id, err := s.client.Do(ctx, s.client.B().Hget().Key(usersByNameKey).Field(name).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Persist("find user", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(userKey(id)).Build()).AsStrMap()
	if err != nil {
		return nil, storage.Persist("get user", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeUser(fields), nil
}

func decodeUser(fields map[string]string) *models.User {
	u := &models.User{
		ID:    fields["id"],
		Name:  fields["name"],
		Color: fields["color"],
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["createdAt"])
	return u
}

// CreateUser claims the name and writes the user hash in one script.
func (s *UserStore) CreateUser(ctx context.Context, name string) (*models.User, error) {
	if name == "" {
		return nil, storage.Validationf("name is required")
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     storage.RandomColor(),
		CreatedAt: time.Now().UTC(),
	}
	n, err := createUserScript.Exec(ctx, s.client,
		[]string{usersByNameKey, userKey(u.ID)},
		[]string{u.ID, u.Name, u.Color, u.CreatedAt.Format(time.RFC3339Nano)},
	).AsInt64()
	if err != nil {
		return nil, storage.Persist("create user", err)
	}
	if n == 0 {
		return nil, storage.ErrDuplicate
	}

	s.logger.Info("user created", slog.String("userID", u.ID), slog.String("name", name))
	return u, nil
}

// ListUsers returns every user, newest first.
func (s *UserStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	ids, err := s.client.Do(ctx, s.client.B().Hvals().Key(usersByNameKey).Build()).AsStrSlice()
	if err != nil {
		return nil, storage.Persist("list users", err)
	}
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	cmds := make(valkey.Commands, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, s.client.B().Hgetall().Key(userKey(id)).Build())
	}
	users := make([]*models.User, 0, len(ids))
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, storage.Persist("list users", err)
		}
		if len(fields) > 0 {
			users = append(users, decodeUser(fields))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id, name, color string) (*models.User, error) {
	if err := storage.ValidateColor(color); err != nil {
		return nil, err
	}

	n, err := updateUserScript.Exec(ctx, s.client,
		[]string{usersByNameKey, userKey(id)},
		[]string{id, name, color},
	).AsInt64()
	if err != nil {
		return nil, storage.Persist("update user", err)
	}
	switch n {
	case 0:
		return nil, nil
	case -1:
		return nil, storage.ErrDuplicate
	}

	s.logger.Info("user updated", slog.String("userID", id))
	return s.GetByID(ctx, id)
}

func (s *UserStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	n, err := deleteUserScript.Exec(ctx, s.client,
		[]string{usersByNameKey, userKey(id)},
		nil,
	).AsInt64()
	if err != nil {
		return false, storage.Persist("delete user", err)
	}
	if n == 1 {
		s.logger.Info("user deleted", slog.String("userID", id))
	}
	return n == 1, nil
}
