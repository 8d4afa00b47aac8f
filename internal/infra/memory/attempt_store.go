package memory

import (
	"context"
	"slices"
	"sync"

	"quiz-feed-service/internal/domain"
)

// AttemptStore keeps finished attempts in insertion order.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.AttemptResult
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

// SaveAttempt stores a result once; a repeated ID is ignored.
func (s *AttemptStore) SaveAttempt(_ context.Context, result domain.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.attempts, func(a domain.AttemptResult) bool { return a.ID == result.ID }) {
		return nil
	}
	s.attempts = append(s.attempts, result)
	return nil
}

func (s *AttemptStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]domain.AttemptResult, error) {
	return s.filter(func(a domain.AttemptResult) bool { return a.QuizID == quizID }), nil
}

func (s *AttemptStore) ListAttemptsByQuizzes(_ context.Context, quizIDs []string) ([]domain.AttemptResult, error) {
	return s.filter(func(a domain.AttemptResult) bool { return slices.Contains(quizIDs, a.QuizID) }), nil
}

func (s *AttemptStore) ListAttemptsByUser(_ context.Context, userID string) ([]domain.AttemptResult, error) {
	return s.filter(func(a domain.AttemptResult) bool { return a.UserID == userID }), nil
}

func (s *AttemptStore) DeleteAttemptsByQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = slices.DeleteFunc(s.attempts, func(a domain.AttemptResult) bool { return a.QuizID == quizID })
	return nil
}

func (s *AttemptStore) filter(keep func(domain.AttemptResult) bool) []domain.AttemptResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttemptResult, 0)
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
