package app

import (
	"context"

	"quiz-feed-service/internal/domain"
)

// SessionRepository abstracts where live attempt sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(live *LiveAttempt)
	Get(sessionID string) (*LiveAttempt, bool)
	Delete(sessionID string)
}

// QuizRepository loads published quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, owner, slug string) (domain.Quiz, error)
	Invalidate(ctx context.Context, owner, slug string) error
}

// QuizStore persists authored quizzes.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
	GetQuizByID(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuiz(ctx context.Context, owner, slug string) (domain.Quiz, error)
	ListQuizzesByCreator(ctx context.Context, creatorID string) ([]domain.Quiz, error)
	IncrementPlays(ctx context.Context, quizID string) error
}

// AttemptStore persists finished attempts.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, result domain.AttemptResult) error
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.AttemptResult, error)
	ListAttemptsByQuizzes(ctx context.Context, quizIDs []string) ([]domain.AttemptResult, error)
	ListAttemptsByUser(ctx context.Context, userID string) ([]domain.AttemptResult, error)
	DeleteAttemptsByQuiz(ctx context.Context, quizID string) error
}

// UserStore persists creators and viewers.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	UpdateUser(ctx context.Context, user domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
}

// TokenIssuer signs viewer identities.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}
