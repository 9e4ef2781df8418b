package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"chat-relay/internal/models"

	"github.com/google/uuid"
)

var (
	ErrMissingField      = errors.New("username required")
	ErrDuplicateUsername = errors.New("username exists")
	ErrNotFound          = errors.New("user not found")
)

type Users interface {
	Register(username string) (models.User, error)
	Login(username string) (models.User, error)
	ListUsers() []models.User
}

// FileUserStore keeps the full user set in memory and rewrites the
// backing JSON file wholesale on every successful registration. The
// mutex serializes mutation and flush so concurrent registrations
// cannot lose updates.
type FileUserStore struct {
	mu    sync.Mutex
	path  string
	users []models.User
}

func OpenUsers(path string) (*FileUserStore, error) {
	s := &FileUserStore{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &s.users); err != nil {
			return nil, fmt.Errorf("failed to parse user file %s: %w", path, err)
		}
		log.Printf("[STORE] Loaded %d users from %s", len(s.users), path)
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create user data dir: %w", err)
		}
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		log.Printf("[STORE] Created empty user file at %s", path)
	default:
		return nil, fmt.Errorf("failed to read user file %s: %w", path, err)
	}

	return s, nil
}

func (s *FileUserStore) Register(username string) (models.User, error) {
	if username == "" {
		return models.User{}, ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return models.User{}, ErrDuplicateUsername
		}
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
	}
	s.users = append(s.users, user)

	if err := s.flushLocked(); err != nil {
		s.users = s.users[:len(s.users)-1]
		return models.User{}, err
	}

	log.Printf("[STORE] Registered user %s (%s). Total users: %d", user.Username, user.ID, len(s.users))
	return user, nil
}

func (s *FileUserStore) Login(username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// ListUsers returns every user in creation order.
func (s *FileUserStore) ListUsers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

// flushLocked rewrites the whole file. Callers must hold s.mu.
func (s *FileUserStore) flushLocked() error {
	if s.users == nil {
		s.users = make([]models.User, 0)
	}
	data, err := json.Marshal(s.users)
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write user file: %w", err)
	}
	return nil
}
