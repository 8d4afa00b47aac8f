package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/domain"
	"quiz-feed-service/internal/infra/memory"
)

type fixture struct {
	quizzes  *memory.QuizStore
	attempts *memory.AttemptStore
	users    *memory.UserStore
	sessions *memory.SessionStore
	cache    *memory.QuizRepository
	catalog  *app.CatalogService
	play     *app.PlayService
}

func newFixture(t *testing.T, seed ...domain.Quiz) *fixture {
	t.Helper()
	f := &fixture{
		quizzes:  memory.NewQuizStore(seed...),
		attempts: memory.NewAttemptStore(),
		users:    memory.NewUserStore(),
		sessions: memory.NewSessionStore(),
	}
	f.cache = memory.NewQuizRepository(f.quizzes, time.Minute)
	f.catalog = app.NewCatalogService(f.quizzes, f.attempts, f.cache)
	f.play = app.NewPlayService(f.sessions, f.cache, f.catalog, f.attempts, app.PlayConfig{
		PersistTimeout: time.Second,
		TickInterval:   time.Millisecond,
	})
	return f
}

func geography() domain.Quiz {
	return domain.Quiz{
		ID:              "quiz-1",
		CreatorID:       "u-ada",
		CreatorUsername: "ada",
		Title:           "Geography",
		Slug:            "geography",
		Questions: []domain.Question{
			{
				ID:             "q1",
				Text:           "Capital of France?",
				Kind:           domain.SingleChoice,
				Options:        []string{"Berlin", "Paris", "Rome"},
				CorrectAnswers: []int{1},
			},
			{
				ID:             "q2",
				Text:           "Which are in Europe?",
				Kind:           domain.MultiSelect,
				Options:        []string{"Spain", "Peru", "Norway"},
				CorrectAnswers: []int{0, 2},
			},
		},
	}
}

func plays(t *testing.T, f *fixture, quizID string) int {
	t.Helper()
	quiz, err := f.quizzes.GetQuizByID(context.Background(), quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	return quiz.Plays
}
