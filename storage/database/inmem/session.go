package inmemdb

import (
	"sync"

	"github.com/mkombe/ratiba/core/planner"
)

// sessionStore is the session-scoped key-value slot backing the planner's
// persisted week reference.
type sessionStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewSessionStore() planner.SessionStore {
	return &sessionStore{items: make(map[string]string)}
}

var _ planner.SessionStore = (*sessionStore)(nil)

func (s *sessionStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *sessionStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *sessionStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}
