package memory

import (
	"context"
	"sync"

	"bondrizz-funnel/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. State
// lives for the process lifetime, like a browser tab's session storage.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]map[string]string)}
}

func (s *SessionStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[sessionID][key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

func (s *SessionStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.data[sessionID]
	if !ok {
		values = make(map[string]string)
		s.data[sessionID] = values
	}
	values[key] = value
	return nil
}

func (s *SessionStore) Clear(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(s.data, sessionID)
	}
	return nil
}

func (s *SessionStore) Drop(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}
