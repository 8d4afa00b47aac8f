package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-feed-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions live in process memory since each one is bound to a websocket;
// Redis holds a liveness marker per open session so other instances and
// operators can count open attempts.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.LiveAttempt
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.LiveAttempt),
	}
}

func (s *SessionStore) Put(live *app.LiveAttempt) {
	s.mu.Lock()
	s.sessions[live.ID()] = live
	s.mu.Unlock()

	session := live.Session
	value := session.Quiz().ID + ":" + session.UserID()
	if err := s.client.Set(context.Background(), s.key(live.ID()), value, s.ttl).Err(); err != nil {
		log.Printf("session %s: liveness marker failed: %v", live.ID(), err)
	}
}

func (s *SessionStore) Get(sessionID string) (*app.LiveAttempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[sessionID]
	return live, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		log.Printf("session %s: clearing liveness marker failed: %v", sessionID, err)
	}
}

// Live counts the open sessions known to Redis across instances.
func (s *SessionStore) Live(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quiz:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
