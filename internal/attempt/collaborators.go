package attempt

import (
	"context"
	"time"

	"quiz-feed-service/internal/domain"
)

// Cue is the feedback signal emitted when a question locks.
type Cue string

const (
	CueCorrect   Cue = "correct"
	CueIncorrect Cue = "incorrect"
)

// PlayRecorder counts quiz plays. Called once per started session; failures are logged and dropped.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, quizID string) error
}

// ResultPersister stores finished attempts. Called once per session, never retried.
type ResultPersister interface {
	SaveAttempt(ctx context.Context, result domain.AttemptResult) error
}

// FeedbackCue reveals a locked answer to the viewer (visual reveal, sound).
// Errors such as a blocked autoplay are swallowed by the session.
type FeedbackCue interface {
	Cue(questionID string, cue Cue) error
}

// Options carries the collaborators of a session. Nil collaborators are skipped.
type Options struct {
	Plays          PlayRecorder
	Results        ResultPersister
	Feedback       FeedbackCue
	Now            func() time.Time
	PersistTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	return o
}
