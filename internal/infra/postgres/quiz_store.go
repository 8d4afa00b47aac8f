package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-feed-service/internal/domain"
)

// QuizStore persists authored quizzes with bun.
type QuizStore struct {
	db *bun.DB
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.db.NewInsert().Model(quizFromDomain(quiz)).Exec(ctx)
	if _, dup := uniqueViolation(err); dup {
		return domain.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := s.db.NewUpdate().
		Model(quizFromDomain(quiz)).
		Column("title", "slug", "description", "questions", "time_limit_seconds").
		WherePK().
		Exec(ctx)
	if _, dup := uniqueViolation(err); dup {
		return domain.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return affected(res, domain.ErrQuizNotFound)
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return affected(res, domain.ErrQuizNotFound)
}

func (s *QuizStore) GetQuizByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound)
	}
	return row.toDomain(), nil
}

func (s *QuizStore) LoadQuiz(ctx context.Context, owner, slug string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).
		Where("creator_username = ?", owner).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound)
	}
	return row.toDomain(), nil
}

func (s *QuizStore) ListQuizzesByCreator(ctx context.Context, creatorID string) ([]domain.Quiz, error) {
	var rows []quizRow
	err := s.db.NewSelect().Model(&rows).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.toDomain())
	}
	return quizzes, nil
}

func (s *QuizStore) IncrementPlays(ctx context.Context, quizID string) error {
	res, err := s.db.NewUpdate().Model((*quizRow)(nil)).
		Set("plays = plays + 1").
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("increment plays: %w", err)
	}
	return affected(res, domain.ErrQuizNotFound)
}
