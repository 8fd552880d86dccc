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

type UserStore struct {
	mu     sync.RWMutex
	users  map[string]*models.User // userID -> user
	byName map[string]string       // name -> userID
	logger *slog.Logger
}

var _ storage.UserDirectory = (*UserStore)(nil)

func NewUserStore(logger *slog.Logger) *UserStore {
	return &UserStore{
		users:  make(map[string]*models.User),
		byName: make(map[string]string),
		logger: logger.With(slog.String("component", "user_store_memory")),
	}
}

func (s *UserStore) FindByName(_ context.Context, name string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	u := *s.users[id]
	return &u, nil
}

func (s *UserStore) CreateUser(_ context.Context, name string) (*models.User, error) {
	if name == "" {
		return nil, storage.Validationf("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; ok {
		return nil, storage.ErrDuplicate
	}
	u := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     storage.RandomColor(),
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	s.byName[name] = u.ID

	s.logger.Info("user created", slog.String("userID", u.ID), slog.String("name", name))
	out := *u
	return &out, nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

// ListUsers returns every user, newest first.
func (s *UserStore) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *UserStore) UpdateUser(_ context.Context, id, name, color string) (*models.User, error) {
	if err := storage.ValidateColor(color); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if name != "" && name != u.Name {
		if _, taken := s.byName[name]; taken {
			return nil, storage.ErrDuplicate
		}
		delete(s.byName, u.Name)
		s.byName[name] = id
		u.Name = name
	}
	if color != "" {
		u.Color = color
	}

	s.logger.Info("user updated", slog.String("userID", id))
	out := *u
	return &out, nil
}

func (s *UserStore) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	delete(s.byName, u.Name)
	delete(s.users, id)

	s.logger.Info("user deleted", slog.String("userID", id))
	return true, nil
}
