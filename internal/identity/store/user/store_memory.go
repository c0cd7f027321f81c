package user

import (
	"context"
	"strings"
	"sync"

	"authgate/internal/identity/models"
	"authgate/pkg/platform/sentinel"
)

// Memory is the in-memory credential store used by unit tests and dev mode.
// It enforces the same uniqueness semantics as the Neo4j store: Create is
// atomic under one mutex, so concurrent registrations for the same email or
// name yield exactly one success.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
	byName  map[string]string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
	}
}

func (s *Memory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalize(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *Memory) FindByName(_ context.Context, name string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[normalize(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *Memory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalize(user.Email)
	name := normalize(user.Name)
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrConflict
	}
	if _, taken := s.byName[name]; taken {
		return sentinel.ErrConflict
	}

	s.byID[user.ID] = *user
	s.byEmail[email] = user.ID
	s.byName[name] = user.ID
	return nil
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
