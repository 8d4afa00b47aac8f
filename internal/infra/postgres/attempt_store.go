package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-feed-service/internal/domain"
)

// AttemptStore persists finished attempts with bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// SaveAttempt is idempotent on the attempt ID.
func (s *AttemptStore) SaveAttempt(ctx context.Context, result domain.AttemptResult) error {
	_, err := s.db.NewInsert().Model(attemptFromDomain(result)).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.AttemptResult, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id = ?", quizID)
	})
}

func (s *AttemptStore) ListAttemptsByQuizzes(ctx context.Context, quizIDs []string) ([]domain.AttemptResult, error) {
	if len(quizIDs) == 0 {
		return []domain.AttemptResult{}, nil
	}
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id IN (?)", bun.In(quizIDs))
	})
}

func (s *AttemptStore) ListAttemptsByUser(ctx context.Context, userID string) ([]domain.AttemptResult, error) {
	return s.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

func (s *AttemptStore) DeleteAttemptsByQuiz(ctx context.Context, quizID string) error {
	_, err := s.db.NewDelete().Model((*attemptRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}

func (s *AttemptStore) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.AttemptResult, error) {
	var rows []attemptRow
	if err := filter(s.db.NewSelect().Model(&rows)).Order("completed_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.AttemptResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func affected(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
