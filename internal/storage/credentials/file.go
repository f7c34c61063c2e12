package credentials

import (
	"context"
	"errors"
	"fmt"
	"moviecatalog/proj/internal/storage"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists the credential as a small YAML document readable only by
// the current user, so a restarted process keeps its login.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

func (s *FileStore) Load(_ context.Context) (string, string, error) {
	const op = "credentials.FileStore.Load"
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", storage.ErrNotFound
		}
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return "", "", fmt.Errorf("%s: %w: %v", op, storage.ErrCorrupt, err)
	}
	token, ok := values[TokenKey]
	if !ok || token == "" {
		return "", "", storage.ErrNotFound
	}
	return token, values[RoleKey], nil
}

func (s *FileStore) Save(_ context.Context, token, role string) error {
	const op = "credentials.FileStore.Save"
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := yaml.Marshal(map[string]string{TokenKey: token, RoleKey: role})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credentials.FileStore.Clear: %w", err)
	}
	return nil
}
