package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/auth"
	"quiz-feed-service/internal/domain"
	"quiz-feed-service/internal/infra/memory"
)

type testServer struct {
	*httptest.Server
	tokens   *auth.Issuer
	users    *memory.UserStore
	attempts *memory.AttemptStore
}

func newTestServer(t *testing.T, quizzes ...domain.Quiz) *testServer {
	t.Helper()
	quizStore := memory.NewQuizStore(quizzes...)
	attempts := memory.NewAttemptStore()
	users := memory.NewUserStore()
	cache := memory.NewQuizRepository(quizStore, time.Minute)
	tokens := auth.NewIssuer("test-secret", time.Hour)

	sessions := memory.NewSessionStore()
	catalog := app.NewCatalogService(quizStore, attempts, cache)
	router := NewRouter(Services{
		Users:     app.NewUserService(users, tokens),
		Catalog:   catalog,
		Analytics: app.NewAnalyticsService(quizStore, attempts, users),
		Play: app.NewPlayService(sessions, cache, catalog, attempts, app.PlayConfig{
			PersistTimeout: time.Second,
			TickInterval:   10 * time.Millisecond,
		}),
		Tokens:   tokens,
		SyncKey:  "sync-secret",
		Sessions: sessions,
	})
	srv := &testServer{Server: httptest.NewServer(router), tokens: tokens, users: users, attempts: attempts}
	t.Cleanup(srv.Close)
	return srv
}

func (s *testServer) signIn(t *testing.T, user domain.User) string {
	t.Helper()
	if err := s.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "quiz-1",
		CreatorID:       "u-ada",
		CreatorUsername: "ada",
		Title:           "Arithmetic",
		Slug:            "arithmetic",
		Questions: []domain.Question{
			{
				ID:             "q1",
				Text:           "What is 2 + 2?",
				Kind:           domain.SingleChoice,
				Options:        []string{"3", "4", "5"},
				CorrectAnswers: []int{1},
				Explanation:    "Two pairs make four.",
			},
			{
				ID:             "q2",
				Text:           "Which are even?",
				Kind:           domain.MultiSelect,
				Options:        []string{"2", "3", "6"},
				CorrectAnswers: []int{0, 2},
			},
		},
	}
}
