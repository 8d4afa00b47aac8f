package attempt

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"quiz-feed-service/internal/domain"
)

// Status is the lifecycle stage of a session.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Completed
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return "not_started"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// QuestionState is the per-question progress shown to the viewer.
type QuestionState string

const (
	Unanswered QuestionState = "unanswered"
	Answered   QuestionState = "answered"
	Correct    QuestionState = "correct"
	Incorrect  QuestionState = "incorrect"
)

// QuestionView is the snapshot of one question's answer state.
type QuestionView struct {
	ID       string        `json:"id"`
	State    QuestionState `json:"state"`
	Selected []int         `json:"selected"`
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	SessionID   string                `json:"sessionId"`
	QuizID      string                `json:"quizId"`
	Status      Status                `json:"status"`
	ActiveIndex int                   `json:"activeIndex"`
	Questions   []QuestionView        `json:"questions"`
	Score       int                   `json:"score"`
	MaxScore    int                   `json:"maxScore"`
	StartedAt   time.Time             `json:"startedAt"`
	Result      *domain.AttemptResult `json:"result,omitempty"`
}

type feedback struct {
	questionID string
	cue        Cue
}

// Session is one viewer's pass through a quiz. It owns the attempt state
// exclusively; every operation runs to completion under the session lock.
type Session struct {
	id     string
	quiz   domain.Quiz
	userID string
	opts   Options

	mu          sync.Mutex
	status      Status
	seq         *Sequencer
	selections  map[string][]int
	locked      map[string]bool
	correctness map[string]bool
	dwell       map[string]time.Duration
	enteredAt   time.Time
	startedAt   time.Time
	finishedAt  time.Time
	result      *domain.AttemptResult
	playCounted bool

	pending sync.WaitGroup
}

// New prepares a session for a signed-in viewer. It does nothing observable until Start.
func New(id string, quiz domain.Quiz, userID string, opts Options) (*Session, error) {
	if userID == "" {
		return nil, domain.ErrNotSignedIn
	}
	return &Session{
		id:          id,
		quiz:        quiz,
		userID:      userID,
		opts:        opts.withDefaults(),
		seq:         NewSequencer(len(quiz.Questions)),
		selections:  make(map[string][]int),
		locked:      make(map[string]bool),
		correctness: make(map[string]bool),
		dwell:       make(map[string]time.Duration),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.userID }

// Quiz returns the question bank the session was opened with.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// Status returns the current lifecycle stage.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start moves the session to InProgress and records one play. Further calls are no-ops.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != NotStarted {
		return
	}
	now := s.opts.Now()
	s.status = InProgress
	s.startedAt = now
	s.enteredAt = now
	if !s.playCounted {
		s.playCounted = true
		s.background("record play", func(ctx context.Context) error {
			if s.opts.Plays == nil {
				return nil
			}
			return s.opts.Plays.RecordPlay(ctx, s.quiz.ID)
		})
	}
}

// SelectOption records a choice. Single-choice questions replace the selection,
// multi-select questions toggle the option. Locked questions ignore the call.
func (s *Session) SelectOption(questionID string, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.questionLocked(questionID)
	if err != nil {
		return err
	}
	if !q.HasOption(option) {
		return domain.ErrOptionNotFound
	}
	if err := s.requireStartedLocked(); err != nil {
		return err
	}
	if s.status == Completed || s.locked[questionID] {
		return nil
	}

	if q.Kind == domain.SingleChoice {
		s.selections[questionID] = []int{option}
		return nil
	}
	current := s.selections[questionID]
	if i, found := slices.BinarySearch(current, option); found {
		s.selections[questionID] = slices.Delete(current, i, i+1)
	} else {
		s.selections[questionID] = slices.Insert(current, i, option)
	}
	return nil
}

// LockAndScore freezes and grades the answer to a question. It reports whether
// the question was locked by this call; empty or already locked answers are refused.
func (s *Session) LockAndScore(questionID string) (bool, error) {
	s.mu.Lock()
	if _, err := s.questionLocked(questionID); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if err := s.requireStartedLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	var cues []feedback
	locked := false
	if s.status == InProgress {
		var fb feedback
		if fb, locked = s.lockLocked(s.quiz.QuestionIndex(questionID)); locked {
			cues = append(cues, fb)
		}
	}
	s.mu.Unlock()

	s.emit(cues)
	return locked, nil
}

// Navigate moves the feed to slide index to. Moving forward past an answered
// question locks it; landing on the results slide finishes the session.
func (s *Session) Navigate(to int) error {
	return s.move(func(seq *Sequencer) (Move, error) { return seq.Move(to) })
}

// Next locks the active question if answered and advances one slide.
func (s *Session) Next() error {
	return s.move(func(seq *Sequencer) (Move, error) { return seq.Next(), nil })
}

// Prev goes back one slide for review. It never scores or unlocks anything.
func (s *Session) Prev() error {
	return s.move(func(seq *Sequencer) (Move, error) { return seq.Prev(), nil })
}

func (s *Session) move(step func(*Sequencer) (Move, error)) error {
	s.mu.Lock()
	if err := s.requireStartedLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.status == Completed {
		s.mu.Unlock()
		return nil
	}
	m, err := step(s.seq)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	var cues []feedback
	if m.Leave >= 0 {
		if fb, ok := s.lockLocked(m.Leave); ok {
			cues = append(cues, fb)
		}
	}
	if m.Moved() {
		s.leaveSlideLocked(m.From)
	}
	if m.Finish {
		cues = append(cues, s.finishLocked()...)
	}
	s.mu.Unlock()

	s.emit(cues)
	return nil
}

// Finish completes the session. The first call locks the in-flight answer,
// freezes the elapsed time and hands the result off for persistence; later
// calls return the same result.
func (s *Session) Finish() (domain.AttemptResult, error) {
	s.mu.Lock()
	if err := s.requireStartedLocked(); err != nil {
		s.mu.Unlock()
		return domain.AttemptResult{}, err
	}
	cues := s.finishLocked()
	result := *s.result
	s.mu.Unlock()

	s.emit(cues)
	return result, nil
}

// Result returns the final result once the session is completed.
func (s *Session) Result() (domain.AttemptResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.AttemptResult{}, false
	}
	return *s.result, true
}

// Snapshot copies the session state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:   s.id,
		QuizID:      s.quiz.ID,
		Status:      s.status,
		ActiveIndex: s.seq.Current(),
		Questions:   make([]QuestionView, 0, len(s.quiz.Questions)),
		MaxScore:    len(s.quiz.Questions),
		StartedAt:   s.startedAt,
	}
	for _, q := range s.quiz.Questions {
		view := QuestionView{ID: q.ID, State: Unanswered, Selected: slices.Clone(s.selections[q.ID])}
		switch {
		case s.locked[q.ID] && s.correctness[q.ID]:
			view.State = Correct
			snap.Score++
		case s.locked[q.ID]:
			view.State = Incorrect
		case len(view.Selected) > 0:
			view.State = Answered
		}
		if view.Selected == nil {
			view.Selected = []int{}
		}
		snap.Questions = append(snap.Questions, view)
	}
	if s.result != nil {
		result := *s.result
		snap.Result = &result
	}
	return snap
}

// Wait blocks until background hand-offs (play recording, persistence) have returned.
func (s *Session) Wait() {
	s.pending.Wait()
}

func (s *Session) questionLocked(questionID string) (domain.Question, error) {
	idx := s.quiz.QuestionIndex(questionID)
	if idx < 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return s.quiz.Questions[idx], nil
}

func (s *Session) requireStartedLocked() error {
	if s.status == NotStarted {
		return domain.ErrSessionNotStarted
	}
	return nil
}

// lockLocked locks question idx if it is answered and still open.
func (s *Session) lockLocked(idx int) (feedback, bool) {
	if idx < 0 || idx >= len(s.quiz.Questions) {
		return feedback{}, false
	}
	q := s.quiz.Questions[idx]
	if s.locked[q.ID] || len(s.selections[q.ID]) == 0 {
		return feedback{}, false
	}
	correct := q.IsCorrect(s.selections[q.ID])
	s.locked[q.ID] = true
	s.correctness[q.ID] = correct
	if correct {
		return feedback{questionID: q.ID, cue: CueCorrect}, true
	}
	return feedback{questionID: q.ID, cue: CueIncorrect}, true
}

func (s *Session) leaveSlideLocked(from int) {
	now := s.opts.Now()
	if from >= 0 && from < len(s.quiz.Questions) {
		s.dwell[s.quiz.Questions[from].ID] += now.Sub(s.enteredAt)
	}
	s.enteredAt = now
}

func (s *Session) finishLocked() []feedback {
	if s.status == Completed {
		return nil
	}

	var cues []feedback
	active := s.seq.Current()
	if fb, ok := s.lockLocked(active); ok {
		cues = append(cues, fb)
	}

	now := s.opts.Now()
	if active >= 0 && active < len(s.quiz.Questions) {
		s.dwell[s.quiz.Questions[active].ID] += now.Sub(s.enteredAt)
	}
	s.finishedAt = now
	s.status = Completed

	result := s.buildResultLocked()
	s.result = &result
	s.background("persist result", func(ctx context.Context) error {
		if s.opts.Results == nil {
			return nil
		}
		return s.opts.Results.SaveAttempt(ctx, result)
	})
	return cues
}

// buildResultLocked emits one breakdown row per question. Questions that were
// never locked count as incorrect with no selected options.
func (s *Session) buildResultLocked() domain.AttemptResult {
	breakdown := make([]domain.QuestionOutcome, 0, len(s.quiz.Questions))
	score := 0
	for _, q := range s.quiz.Questions {
		outcome := domain.QuestionOutcome{
			QuestionID:      q.ID,
			TimeSpent:       int(s.dwell[q.ID].Seconds()),
			SelectedOptions: []int{},
		}
		if s.locked[q.ID] {
			outcome.IsCorrect = s.correctness[q.ID]
			outcome.SelectedOptions = slices.Clone(s.selections[q.ID])
		}
		if outcome.IsCorrect {
			score++
		}
		breakdown = append(breakdown, outcome)
	}
	return domain.AttemptResult{
		ID:                s.id,
		QuizID:            s.quiz.ID,
		UserID:            s.userID,
		Score:             score,
		MaxScore:          len(s.quiz.Questions),
		TimeTakenSeconds:  int(s.finishedAt.Sub(s.startedAt).Seconds()),
		QuestionBreakdown: breakdown,
		CompletedAt:       s.finishedAt,
	}
}

func (s *Session) background(what string, fn func(ctx context.Context) error) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("attempt %s: %s failed: %v", s.id, what, err)
		}
	}()
}

func (s *Session) emit(cues []feedback) {
	if s.opts.Feedback == nil {
		return
	}
	for _, fb := range cues {
		if err := s.opts.Feedback.Cue(fb.questionID, fb.cue); err != nil {
			log.Printf("attempt %s: feedback cue for %s dropped: %v", s.id, fb.questionID, err)
		}
	}
}
