package attempt

import (
	"math"

	"quiz-feed-service/internal/domain"
)

// IntroIndex is the slide shown before the first question.
const IntroIndex = -1

// Move describes one position change of the feed.
type Move struct {
	From int
	To   int
	// Leave is the question index left behind by a forward move, or -1.
	Leave int
	// Finish is set when the move lands on the results slide.
	Finish bool
}

// Moved reports whether the position actually changed.
func (m Move) Moved() bool {
	return m.From != m.To
}

// Sequencer maps feed positions onto the active slide. Slides run from the
// intro (-1) through each question to the results slide (count).
type Sequencer struct {
	count   int
	current int
}

func NewSequencer(questionCount int) *Sequencer {
	return &Sequencer{count: questionCount, current: IntroIndex}
}

// Current returns the active slide index.
func (q *Sequencer) Current() int {
	return q.current
}

// Move jumps to position to.
func (q *Sequencer) Move(to int) (Move, error) {
	if to < IntroIndex || to > q.count {
		return Move{}, domain.ErrPositionOutOfRange
	}
	m := Move{From: q.current, To: to, Leave: -1, Finish: to == q.count}
	if to > q.current && q.current >= 0 && q.current < q.count {
		m.Leave = q.current
	}
	q.current = to
	return m, nil
}

// Next advances one slide; it stays put on the results slide.
func (q *Sequencer) Next() Move {
	if q.current >= q.count {
		return Move{From: q.current, To: q.current, Leave: -1}
	}
	m, _ := q.Move(q.current + 1)
	return m
}

// Prev goes back one slide; it stays put on the intro.
func (q *Sequencer) Prev() Move {
	if q.current <= IntroIndex {
		return Move{From: q.current, To: q.current, Leave: -1}
	}
	m, _ := q.Move(q.current - 1)
	return m
}

// PositionFromScroll converts a scroll offset into a slide index, one slide per viewport height.
func PositionFromScroll(offset, viewportHeight float64, questionCount int) int {
	if viewportHeight <= 0 {
		return IntroIndex
	}
	// Clamp before converting: huge offsets overflow int.
	pos := math.Round(offset/viewportHeight) - 1
	if math.IsNaN(pos) || pos <= IntroIndex {
		return IntroIndex
	}
	if pos >= float64(questionCount) {
		return questionCount
	}
	return int(pos)
}
