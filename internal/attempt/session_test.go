package attempt

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"quiz-feed-service/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPersister struct {
	mu      sync.Mutex
	results []domain.AttemptResult
	err     error
}

func (p *recordingPersister) SaveAttempt(_ context.Context, result domain.AttemptResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	return p.err
}

type countingPlays struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPlays) RecordPlay(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return errors.New("counter offline")
}

type recordingCue struct {
	mu   sync.Mutex
	cues []Cue
	err  error
}

func (c *recordingCue) Cue(_ string, cue Cue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cues = append(c.cues, cue)
	return c.err
}

func twoSingleChoice() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Text: "First?", Kind: domain.SingleChoice, Options: []string{"a", "b"}, CorrectAnswers: []int{0}},
			{ID: "q2", Text: "Second?", Kind: domain.SingleChoice, Options: []string{"a", "b"}, CorrectAnswers: []int{1}},
		},
	}
}

func oneMultiSelect() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-2",
		Questions: []domain.Question{
			{ID: "m1", Text: "Pick evens", Kind: domain.MultiSelect, Options: []string{"0", "1", "2"}, CorrectAnswers: []int{0, 2}},
		},
	}
}

func startSession(t *testing.T, quiz domain.Quiz, opts Options) *Session {
	t.Helper()
	s, err := New("session-1", quiz, "u1", opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.Start()
	return s
}

func TestScenarioTwoCorrectAnswers(t *testing.T) {
	persister := &recordingPersister{}
	s := startSession(t, twoSingleChoice(), Options{Results: persister})

	mustSelect(t, s, "q1", 0)
	mustLock(t, s, "q1", true)
	mustSelect(t, s, "q2", 1)
	mustLock(t, s, "q2", true)

	result, err := s.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != 2 || result.MaxScore != 2 {
		t.Fatalf("expected 2/2, got %d/%d", result.Score, result.MaxScore)
	}

	s.Wait()
	if len(persister.results) != 1 || persister.results[0].Score != 2 {
		t.Fatalf("expected one persisted result, got %+v", persister.results)
	}
}

func TestPartialMultiSelectIsIncorrect(t *testing.T) {
	s := startSession(t, oneMultiSelect(), Options{})
	mustSelect(t, s, "m1", 0)
	mustLock(t, s, "m1", true)

	if got := s.Snapshot().Questions[0].State; got != Incorrect {
		t.Fatalf("expected incorrect, got %s", got)
	}
}

func TestExtraMultiSelectOptionIsIncorrect(t *testing.T) {
	s := startSession(t, oneMultiSelect(), Options{})
	for _, opt := range []int{0, 1, 2} {
		mustSelect(t, s, "m1", opt)
	}
	mustLock(t, s, "m1", true)

	if got := s.Snapshot().Questions[0].State; got != Incorrect {
		t.Fatalf("expected incorrect, got %s", got)
	}
}

func TestMultiSelectToggles(t *testing.T) {
	s := startSession(t, oneMultiSelect(), Options{})
	mustSelect(t, s, "m1", 2)
	mustSelect(t, s, "m1", 0)
	mustSelect(t, s, "m1", 1)
	mustSelect(t, s, "m1", 1)

	if got := s.Snapshot().Questions[0].Selected; !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("expected [0 2], got %v", got)
	}
	mustLock(t, s, "m1", true)
	if got := s.Snapshot().Questions[0].State; got != Correct {
		t.Fatalf("expected correct, got %s", got)
	}
}

func TestSingleChoiceReplacesSelection(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	mustSelect(t, s, "q1", 0)
	mustSelect(t, s, "q1", 1)

	if got := s.Snapshot().Questions[0].Selected; !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected single selection [1], got %v", got)
	}
}

func TestLockedQuestionIsWriteOnce(t *testing.T) {
	cue := &recordingCue{}
	s := startSession(t, twoSingleChoice(), Options{Feedback: cue})
	mustSelect(t, s, "q1", 0)
	mustLock(t, s, "q1", true)

	mustSelect(t, s, "q1", 1)
	mustLock(t, s, "q1", false)

	q := s.Snapshot().Questions[0]
	if q.State != Correct || !reflect.DeepEqual(q.Selected, []int{0}) {
		t.Fatalf("locked question changed: %+v", q)
	}
	if len(cue.cues) != 1 || cue.cues[0] != CueCorrect {
		t.Fatalf("expected a single correct cue, got %v", cue.cues)
	}
}

func TestLockRefusesEmptySelection(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	mustLock(t, s, "q1", false)
	if got := s.Snapshot().Questions[0].State; got != Unanswered {
		t.Fatalf("expected unanswered, got %s", got)
	}
}

func TestInvalidReferencesAreRejected(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	if err := s.SelectOption("nope", 0); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question error, got %v", err)
	}
	if err := s.SelectOption("q1", 5); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option error, got %v", err)
	}
	if _, err := s.LockAndScore("nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question error, got %v", err)
	}
	if got := s.Snapshot().Questions[0].Selected; len(got) != 0 {
		t.Fatalf("rejected input mutated state: %v", got)
	}
}

func TestNotStartedSessionRejectsOperations(t *testing.T) {
	s, err := New("s", twoSingleChoice(), "u1", Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.SelectOption("q1", 0); !errors.Is(err, domain.ErrSessionNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	if _, err := s.Finish(); !errors.Is(err, domain.ErrSessionNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
}

func TestSessionRequiresViewer(t *testing.T) {
	if _, err := New("s", twoSingleChoice(), "", Options{}); !errors.Is(err, domain.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	persister := &recordingPersister{}
	s := startSession(t, twoSingleChoice(), Options{Now: clock.Now, Results: persister})

	clock.Advance(7 * time.Second)
	first, _ := s.Finish()
	clock.Advance(30 * time.Second)
	second, _ := s.Finish()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("finish results differ:\n%+v\n%+v", first, second)
	}
	if first.TimeTakenSeconds != 7 {
		t.Fatalf("expected frozen time 7s, got %d", first.TimeTakenSeconds)
	}
	s.Wait()
	if len(persister.results) != 1 {
		t.Fatalf("expected one hand-off, got %d", len(persister.results))
	}
}

func TestFinishLocksInFlightAnswer(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	mustSelect(t, s, "q1", 0)

	result, _ := s.Finish()
	if result.Score != 1 || !result.QuestionBreakdown[0].IsCorrect {
		t.Fatalf("expected in-flight answer scored, got %+v", result)
	}
}

func TestForwardNavigationSkipsUnanswered(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	if err := s.Navigate(0); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := s.Navigate(1); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	snap := s.Snapshot()
	if snap.Questions[0].State != Unanswered {
		t.Fatalf("expected q1 still unanswered, got %s", snap.Questions[0].State)
	}

	result, _ := s.Finish()
	if result.Score != 0 || result.MaxScore != 2 {
		t.Fatalf("expected 0/2, got %d/%d", result.Score, result.MaxScore)
	}
	row := result.QuestionBreakdown[0]
	if row.IsCorrect || len(row.SelectedOptions) != 0 {
		t.Fatalf("expected empty incorrect row for skipped question, got %+v", row)
	}
}

func TestForwardNavigationLocksAnswered(t *testing.T) {
	cue := &recordingCue{err: errors.New("autoplay blocked")}
	s := startSession(t, twoSingleChoice(), Options{Feedback: cue})
	_ = s.Navigate(0)
	mustSelect(t, s, "q1", 1)
	_ = s.Navigate(1)

	if got := s.Snapshot().Questions[0].State; got != Incorrect {
		t.Fatalf("expected q1 locked incorrect, got %s", got)
	}
	if len(cue.cues) != 1 || cue.cues[0] != CueIncorrect {
		t.Fatalf("expected incorrect cue despite cue failure, got %v", cue.cues)
	}
}

func TestBackwardNavigationNeverScores(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	_ = s.Navigate(1)
	mustSelect(t, s, "q2", 1)
	_ = s.Prev()

	snap := s.Snapshot()
	if snap.ActiveIndex != 0 {
		t.Fatalf("expected active 0, got %d", snap.ActiveIndex)
	}
	if snap.Questions[1].State != Answered {
		t.Fatalf("expected q2 answered but open, got %s", snap.Questions[1].State)
	}
}

func TestNavigateToResultsFinishes(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	_ = s.Navigate(1)
	mustSelect(t, s, "q2", 1)
	if err := s.Navigate(2); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	result, ok := s.Result()
	if !ok || s.Status() != Completed {
		t.Fatalf("expected completed session")
	}
	if result.Score != 1 {
		t.Fatalf("expected q2 scored on the way to results, got %d", result.Score)
	}
	if err := s.Navigate(5); err != nil {
		t.Fatalf("navigation after completion should be ignored, got %v", err)
	}
}

func TestNavigateOutOfRange(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	if err := s.Navigate(3); !errors.Is(err, domain.ErrPositionOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := s.Navigate(-2); !errors.Is(err, domain.ErrPositionOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestCorrectnessDefinedOnlyWhenLocked(t *testing.T) {
	s := startSession(t, twoSingleChoice(), Options{})
	mustSelect(t, s, "q1", 0)
	mustSelect(t, s, "q2", 0)
	mustLock(t, s, "q1", true)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quiz.Questions {
		_, scored := s.correctness[q.ID]
		if scored != s.locked[q.ID] {
			t.Fatalf("question %s: scored=%v locked=%v", q.ID, scored, s.locked[q.ID])
		}
	}
}

func TestPlayRecordedOnceAndFailureSwallowed(t *testing.T) {
	plays := &countingPlays{}
	s := startSession(t, twoSingleChoice(), Options{Plays: plays})
	s.Start()
	s.Wait()
	if plays.calls != 1 {
		t.Fatalf("expected one play, got %d", plays.calls)
	}
	if s.Status() != InProgress {
		t.Fatalf("expected session in progress after play failure, got %s", s.Status())
	}
}

func TestPersistFailureKeepsResult(t *testing.T) {
	persister := &recordingPersister{err: errors.New("db down")}
	s := startSession(t, twoSingleChoice(), Options{Results: persister})
	mustSelect(t, s, "q1", 0)
	result, err := s.Finish()
	if err != nil {
		t.Fatalf("finish should not surface persistence errors, got %v", err)
	}
	s.Wait()
	if got, ok := s.Result(); !ok || !reflect.DeepEqual(got, result) {
		t.Fatalf("expected result kept after persistence failure")
	}
}

func TestTimeSpentTracksDwell(t *testing.T) {
	clock := newFakeClock()
	s := startSession(t, twoSingleChoice(), Options{Now: clock.Now})
	clock.Advance(2 * time.Second)
	_ = s.Navigate(0)
	clock.Advance(5 * time.Second)
	_ = s.Navigate(1)
	clock.Advance(3 * time.Second)

	result, _ := s.Finish()
	if result.QuestionBreakdown[0].TimeSpent != 5 || result.QuestionBreakdown[1].TimeSpent != 3 {
		t.Fatalf("unexpected dwell times: %+v", result.QuestionBreakdown)
	}
	if result.TimeTakenSeconds != 10 {
		t.Fatalf("expected 10s total, got %d", result.TimeTakenSeconds)
	}
}

func mustSelect(t *testing.T, s *Session, questionID string, option int) {
	t.Helper()
	if err := s.SelectOption(questionID, option); err != nil {
		t.Fatalf("select %s/%d: %v", questionID, option, err)
	}
}

func mustLock(t *testing.T, s *Session, questionID string, want bool) {
	t.Helper()
	locked, err := s.LockAndScore(questionID)
	if err != nil {
		t.Fatalf("lock %s: %v", questionID, err)
	}
	if locked != want {
		t.Fatalf("lock %s: locked=%v, want %v", questionID, locked, want)
	}
}
