package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/domain"
)

func TestAnalyticsQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, geography())
	svc := app.NewAnalyticsService(f.quizzes, f.attempts, f.users)
	_ = f.users.CreateUser(ctx, domain.User{ID: "v1", Email: "v1@example.com", Username: "v1", Name: "Viewer One"})

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = f.attempts.SaveAttempt(ctx, domain.AttemptResult{ID: "a1", QuizID: "quiz-1", UserID: "v1", Score: 1, MaxScore: 2, CompletedAt: at})
	_ = f.attempts.SaveAttempt(ctx, domain.AttemptResult{ID: "a2", QuizID: "quiz-1", UserID: "v1", Score: 2, MaxScore: 2, CompletedAt: at.Add(time.Hour)})
	_ = f.attempts.SaveAttempt(ctx, domain.AttemptResult{ID: "a3", QuizID: "deleted-quiz", UserID: "v1", Score: 2, MaxScore: 2, CompletedAt: at})

	if _, err := svc.QuizAnalytics(ctx, "someone-else", "quiz-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	report, err := svc.QuizAnalytics(ctx, "u-ada", "quiz-1")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if report.TotalAttempts != 2 || report.HighestScore != 100 || report.Leaderboard[0].UserName != "Viewer One" {
		t.Fatalf("unexpected report %+v", report)
	}

	stats, err := svc.CreatorStats(ctx, "u-ada")
	if err != nil {
		t.Fatalf("creator stats: %v", err)
	}
	if stats.TotalQuizzes != 1 || stats.AvgScore != 75 || len(stats.RecentAttempts) != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	taken, err := svc.TakenQuizzes(ctx, "v1")
	if err != nil {
		t.Fatalf("taken: %v", err)
	}
	if len(taken) != 1 || taken[0].Quiz.ID != "quiz-1" || taken[0].Attempts != 2 || taken[0].BestPercent != 100 {
		t.Fatalf("unexpected taken quizzes %+v", taken)
	}

	history, _ := svc.UserAttempts(ctx, "v1")
	if len(history) != 3 || history[0].ID != "a2" {
		t.Fatalf("expected newest attempt first, got %+v", history)
	}
}
