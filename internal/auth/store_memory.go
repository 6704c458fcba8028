package auth

import (
	"context"
	"sync"
)

type MemStore struct {
	mu         sync.RWMutex
	byUsername map[string]Account
}

func NewMemStore() *MemStore {
	return &MemStore{byUsername: make(map[string]Account)}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[a.Username]; ok {
		return ErrUsernameTaken
	}
	s.byUsername[a.Username] = a
	return nil
}

func (s *MemStore) FindByUsername(ctx context.Context, username string) (Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byUsername[username]
	return a, ok, nil
}
