package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/attempt"
	"quiz-feed-service/internal/domain"
)

func TestOpenRequiresViewerAndQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, geography())

	if _, err := f.play.Open(ctx, app.OpenRequest{Owner: "ada", Slug: "geography"}); !errors.Is(err, domain.ErrNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
	if _, err := f.play.Open(ctx, app.OpenRequest{Owner: "ada", Slug: "missing", ViewerID: "v1"}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if f.sessions.Len() != 0 {
		t.Fatalf("expected no session created, got %d", f.sessions.Len())
	}
}

func TestPlayThroughPersistsResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, geography())

	live, err := f.play.Open(ctx, app.OpenRequest{Owner: "ada", Slug: "geography", ViewerID: "v1"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if live.Timer != nil {
		t.Fatalf("expected no timer without a time limit")
	}
	id := live.ID()

	steps := []func() (attempt.Snapshot, error){
		func() (attempt.Snapshot, error) { return f.play.Next(ctx, id) },
		func() (attempt.Snapshot, error) { return f.play.Select(ctx, id, "q1", 1) },
		func() (attempt.Snapshot, error) { return f.play.Next(ctx, id) },
		func() (attempt.Snapshot, error) { return f.play.Select(ctx, id, "q2", 0) },
		func() (attempt.Snapshot, error) { return f.play.Select(ctx, id, "q2", 2) },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snap, err := f.play.Snapshot(ctx, id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.ActiveIndex != 1 || snap.Questions[0].State != attempt.Correct || snap.Questions[1].State != attempt.Answered {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	result, err := f.play.Finish(ctx, id)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != 2 || result.MaxScore != 2 || result.ID != id {
		t.Fatalf("unexpected result %+v", result)
	}

	live.Session.Wait()
	saved, _ := f.attempts.ListAttemptsByUser(ctx, "v1")
	if len(saved) != 1 || saved[0].Score != 2 {
		t.Fatalf("expected persisted attempt, got %+v", saved)
	}
	if got := plays(t, f, "quiz-1"); got != 1 {
		t.Fatalf("expected one play, got %d", got)
	}

	f.play.Close(ctx, id)
	if _, err := f.play.Next(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected closed session, got %v", err)
	}
}

func TestScrollNavigationFinishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, geography())
	live, _ := f.play.Open(ctx, app.OpenRequest{Owner: "ada", Slug: "geography", ViewerID: "v1"})

	snap, err := f.play.Scroll(ctx, live.ID(), 800, 800)
	if err != nil || snap.ActiveIndex != 0 {
		t.Fatalf("expected first question, got %d (%v)", snap.ActiveIndex, err)
	}
	_, _ = f.play.Select(ctx, live.ID(), "q1", 0)

	snap, err = f.play.Scroll(ctx, live.ID(), 2400, 800)
	if err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if snap.Status != attempt.Completed || snap.Result == nil {
		t.Fatalf("expected results slide to finish, got %+v", snap)
	}
	q1 := snap.Result.QuestionBreakdown[0]
	if snap.Result.Score != 0 || q1.IsCorrect || len(q1.SelectedOptions) != 1 {
		t.Fatalf("expected q1 locked as incorrect on the way down, got %+v", snap.Result)
	}
}

func TestScrollFarUpReturnsToIntro(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, geography())
	live, _ := f.play.Open(ctx, app.OpenRequest{Owner: "ada", Slug: "geography", ViewerID: "v1"})
	if _, err := f.play.Next(ctx, live.ID()); err != nil {
		t.Fatalf("next: %v", err)
	}

	snap, err := f.play.Scroll(ctx, live.ID(), -1e300, 800)
	if err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if snap.ActiveIndex != attempt.IntroIndex || snap.Status != attempt.InProgress || snap.Result != nil {
		t.Fatalf("expected intro slide on an unfinished attempt, got %+v", snap)
	}
}

func TestTimedQuizExpires(t *testing.T) {
	ctx := context.Background()
	quiz := geography()
	quiz.TimeLimitSeconds = 2
	f := newFixture(t, quiz)

	ticks := make(chan int, 4)
	live, err := f.play.Open(ctx, app.OpenRequest{
		Owner:    "ada",
		Slug:     "geography",
		ViewerID: "v1",
		OnTick:   func(remaining int) { ticks <- remaining },
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if live.Timer == nil {
		t.Fatalf("expected a timer")
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case remaining := <-ticks:
			if remaining != 0 {
				continue
			}
			if _, ok := live.Session.Result(); !ok {
				t.Fatalf("expected session finished at zero")
			}
			return
		case <-deadline:
			t.Fatalf("timer never expired")
		}
	}
}

func TestAttachRunsBeforeFirstTick(t *testing.T) {
	ctx := context.Background()
	quiz := geography()
	quiz.TimeLimitSeconds = 1
	f := newFixture(t, quiz)

	var attached atomic.Pointer[app.LiveAttempt]
	seen := make(chan bool, 1)
	live, err := f.play.Open(ctx, app.OpenRequest{
		Owner:    "ada",
		Slug:     "geography",
		ViewerID: "v1",
		Attach:   func(l *app.LiveAttempt) { attached.Store(l) },
		OnTick: func(remaining int) {
			if remaining == 0 {
				seen <- attached.Load() != nil
			}
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	select {
	case ok := <-seen:
		if !ok {
			t.Fatalf("expected attach before the final tick")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never expired")
	}
	if attached.Load() != live {
		t.Fatalf("attach saw a different attempt")
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.play.Select(context.Background(), "nope", "q1", 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := f.play.Finish(context.Background(), "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}
