package credentials

import (
	"context"
	"moviecatalog/proj/internal/storage"
	"sync"
)

type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.values[TokenKey]
	if !ok {
		return "", "", storage.ErrNotFound
	}
	return token, s.values[RoleKey], nil
}

func (s *MemoryStore) Save(_ context.Context, token, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[TokenKey] = token
	s.values[RoleKey] = role
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	return nil
}
