package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quiz-feed-service/internal/attempt"
	"quiz-feed-service/internal/domain"
)

// LiveAttempt is an open attempt session plus its optional countdown.
type LiveAttempt struct {
	Session *attempt.Session
	Timer   *attempt.Timer
	cancel  context.CancelFunc
}

// NewLiveAttempt is exported for infrastructure tests that need to seed sessions.
func NewLiveAttempt(session *attempt.Session) *LiveAttempt {
	return &LiveAttempt{Session: session, cancel: func() {}}
}

// ID returns the session ID.
func (l *LiveAttempt) ID() string {
	return l.Session.ID()
}

// PlayConfig tunes attempt sessions.
type PlayConfig struct {
	PersistTimeout time.Duration
	TickInterval   time.Duration
}

// OpenRequest describes a viewer opening a quiz.
type OpenRequest struct {
	Owner    string
	Slug     string
	ViewerID string
	// Feedback receives correct/incorrect cues as questions lock.
	Feedback attempt.FeedbackCue
	// OnTick sees every countdown second when the quiz has a time limit.
	OnTick func(remaining int)
	// Attach runs once the session is registered, before the timer can tick.
	Attach func(live *LiveAttempt)
}

// PlayService contains the quiz-taking use cases.
type PlayService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	plays    attempt.PlayRecorder
	results  attempt.ResultPersister
	cfg      PlayConfig
}

func NewPlayService(sessions SessionRepository, quizzes QuizRepository, plays attempt.PlayRecorder, results attempt.ResultPersister, cfg PlayConfig) *PlayService {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &PlayService{sessions: sessions, quizzes: quizzes, plays: plays, results: results, cfg: cfg}
}

// Open loads the quiz, starts a session for the viewer and its timer.
// A missing viewer or quiz yields an error and no session.
func (s *PlayService) Open(ctx context.Context, req OpenRequest) (*LiveAttempt, error) {
	if req.ViewerID == "" {
		return nil, domain.ErrNotSignedIn
	}
	quiz, err := s.quizzes.GetQuiz(ctx, req.Owner, req.Slug)
	if err != nil {
		return nil, err
	}

	session, err := attempt.New(uuid.NewString(), quiz, req.ViewerID, attempt.Options{
		Plays:          s.plays,
		Results:        s.results,
		Feedback:       req.Feedback,
		PersistTimeout: s.cfg.PersistTimeout,
	})
	if err != nil {
		return nil, err
	}
	session.Start()

	live := &LiveAttempt{Session: session, cancel: func() {}}
	timer := attempt.NewTimer(quiz.TimeLimitSeconds, session)
	var timerCtx context.Context
	if timer != nil {
		live.Timer = timer
		timerCtx, live.cancel = context.WithCancel(context.Background())
	}
	s.sessions.Put(live)
	if req.Attach != nil {
		req.Attach(live)
	}
	if timer != nil {
		go timer.Run(timerCtx, s.cfg.TickInterval, req.OnTick)
	}
	return live, nil
}

// Select records an option choice.
func (s *PlayService) Select(_ context.Context, sessionID, questionID string, option int) (attempt.Snapshot, error) {
	return s.apply(sessionID, func(session *attempt.Session) error {
		return session.SelectOption(questionID, option)
	})
}

// Lock locks and scores a question explicitly.
func (s *PlayService) Lock(_ context.Context, sessionID, questionID string) (attempt.Snapshot, error) {
	return s.apply(sessionID, func(session *attempt.Session) error {
		_, err := session.LockAndScore(questionID)
		return err
	})
}

// Navigate jumps to a slide index.
func (s *PlayService) Navigate(_ context.Context, sessionID string, index int) (attempt.Snapshot, error) {
	return s.apply(sessionID, func(session *attempt.Session) error {
		return session.Navigate(index)
	})
}

// Scroll navigates to the slide under a scroll offset.
func (s *PlayService) Scroll(_ context.Context, sessionID string, offset, viewportHeight float64) (attempt.Snapshot, error) {
	return s.apply(sessionID, func(session *attempt.Session) error {
		count := len(session.Quiz().Questions)
		return session.Navigate(attempt.PositionFromScroll(offset, viewportHeight, count))
	})
}

// Next advances one slide.
func (s *PlayService) Next(_ context.Context, sessionID string) (attempt.Snapshot, error) {
	return s.apply(sessionID, (*attempt.Session).Next)
}

// Prev goes back one slide.
func (s *PlayService) Prev(_ context.Context, sessionID string) (attempt.Snapshot, error) {
	return s.apply(sessionID, (*attempt.Session).Prev)
}

// Finish completes the session and returns its result.
func (s *PlayService) Finish(_ context.Context, sessionID string) (domain.AttemptResult, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AttemptResult{}, domain.ErrSessionNotFound
	}
	return live.Session.Finish()
}

// Snapshot returns the current state of a session.
func (s *PlayService) Snapshot(_ context.Context, sessionID string) (attempt.Snapshot, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return attempt.Snapshot{}, domain.ErrSessionNotFound
	}
	return live.Session.Snapshot(), nil
}

// Close stops the timer and forgets the session. An unfinished attempt is abandoned.
func (s *PlayService) Close(_ context.Context, sessionID string) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	live.cancel()
	s.sessions.Delete(sessionID)
}

func (s *PlayService) apply(sessionID string, op func(*attempt.Session) error) (attempt.Snapshot, error) {
	live, ok := s.sessions.Get(sessionID)
	if !ok {
		return attempt.Snapshot{}, domain.ErrSessionNotFound
	}
	if err := op(live.Session); err != nil {
		return attempt.Snapshot{}, err
	}
	return live.Session.Snapshot(), nil
}
