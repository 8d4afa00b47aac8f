package memory

import (
	"context"
	"sync"

	"quiz-feed-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.LiveAttempt
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.LiveAttempt),
	}
}

func (s *SessionStore) Put(live *app.LiveAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[live.ID()] = live
}

func (s *SessionStore) Get(sessionID string) (*app.LiveAttempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[sessionID]
	return live, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports how many sessions are open.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Live is Len in the shape the health endpoint expects.
func (s *SessionStore) Live(context.Context) (int, error) {
	return s.Len(), nil
}
