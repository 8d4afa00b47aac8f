package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-feed-service/internal/domain"
)

// QuizLoader loads published quizzes by creator username + slug on the read path.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, owner, slug string) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, creator_id, creator_username, title, slug, description,
		       questions, time_limit_seconds, plays, created_at
		FROM quizzes
		WHERE creator_username = $1 AND slug = $2`, owner, slug).
		Scan(&quiz.ID, &quiz.CreatorID, &quiz.CreatorUsername, &quiz.Title, &quiz.Slug, &quiz.Description,
			&raw, &quiz.TimeLimitSeconds, &quiz.Plays, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
