package app

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"quiz-feed-service/internal/analytics"
	"quiz-feed-service/internal/domain"
)

// TakenQuiz is a quiz a viewer attempted, with their best result on it.
type TakenQuiz struct {
	Quiz        domain.PublicQuiz `json:"quiz"`
	Attempts    int               `json:"attempts"`
	BestPercent int               `json:"bestPercentage"`
}

// AnalyticsService answers creator and viewer reporting queries.
type AnalyticsService struct {
	quizzes  QuizStore
	attempts AttemptStore
	users    UserStore
}

func NewAnalyticsService(quizzes QuizStore, attempts AttemptStore, users UserStore) *AnalyticsService {
	return &AnalyticsService{quizzes: quizzes, attempts: attempts, users: users}
}

// QuizAnalytics builds the report of one quiz for its owner.
func (s *AnalyticsService) QuizAnalytics(ctx context.Context, requesterID, quizID string) (analytics.QuizReport, error) {
	var (
		quiz     domain.Quiz
		attempts []domain.AttemptResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.quizzes.GetQuizByID(gctx, quizID)
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListAttemptsByQuiz(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return analytics.QuizReport{}, err
	}
	if quiz.CreatorID != requesterID {
		return analytics.QuizReport{}, domain.ErrForbidden
	}

	userIDs := make([]string, 0, len(attempts))
	for _, a := range attempts {
		userIDs = append(userIDs, a.UserID)
	}
	users, err := s.users.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return analytics.QuizReport{}, err
	}
	return analytics.BuildQuizReport(quiz, attempts, users), nil
}

// CreatorStats summarises all quizzes of a creator.
func (s *AnalyticsService) CreatorStats(ctx context.Context, creatorID string) (analytics.CreatorStats, error) {
	quizzes, err := s.quizzes.ListQuizzesByCreator(ctx, creatorID)
	if err != nil {
		return analytics.CreatorStats{}, err
	}
	ids := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	attempts, err := s.attempts.ListAttemptsByQuizzes(ctx, ids)
	if err != nil {
		return analytics.CreatorStats{}, err
	}
	return analytics.BuildCreatorStats(quizzes, attempts), nil
}

// TakenQuizzes lists the quizzes a viewer attempted. Deleted quizzes are skipped.
func (s *AnalyticsService) TakenQuizzes(ctx context.Context, userID string) ([]TakenQuiz, error) {
	attempts, err := s.attempts.ListAttemptsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.Before(attempts[j].CompletedAt)
	})

	ids := analytics.UniqueQuizIDs(attempts)
	quizzes := make([]domain.Quiz, len(ids))
	found := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			quiz, err := s.quizzes.GetQuizByID(gctx, id)
			if errors.Is(err, domain.ErrQuizNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			quizzes[i], found[i] = quiz, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taken := make([]TakenQuiz, 0, len(ids))
	for i, id := range ids {
		if !found[i] {
			continue
		}
		entry := TakenQuiz{Quiz: quizzes[i].Public()}
		for _, a := range attempts {
			if a.QuizID != id {
				continue
			}
			entry.Attempts++
			if p := a.Percentage(); p > entry.BestPercent {
				entry.BestPercent = p
			}
		}
		taken = append(taken, entry)
	}
	return taken, nil
}

// UserAttempts returns a viewer's attempts, newest first.
func (s *AnalyticsService) UserAttempts(ctx context.Context, userID string) ([]domain.AttemptResult, error) {
	attempts, err := s.attempts.ListAttemptsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.After(attempts[j].CompletedAt)
	})
	return attempts, nil
}
