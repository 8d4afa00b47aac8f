package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/attempt"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session, err := attempt.New("s-1", sampleQuiz(), "viewer", attempt.Options{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	store.Put(app.NewLiveAttempt(session))
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s-1"); got != "quiz-1:viewer" {
		t.Fatalf("unexpected marker %q", got)
	}
	if n, err := store.Live(context.Background()); err != nil || n != 1 {
		t.Fatalf("expected one live session, got %d (%v)", n, err)
	}

	store.Delete("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session forgotten")
	}
}
