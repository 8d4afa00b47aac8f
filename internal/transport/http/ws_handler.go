package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"quiz-feed-service/internal/app"
	"quiz-feed-service/internal/attempt"
	"quiz-feed-service/internal/domain"
)

// errSendBufferFull is reported to the session when a cue cannot be queued.
var errSendBufferFull = errors.New("send buffer full")

type WSHandler struct {
	play     *app.PlayService
	tokens   TokenParser
	upgrader websocket.Upgrader
}

func NewWSHandler(play *app.PlayService, tokens TokenParser) *WSHandler {
	return &WSHandler{
		play:   play,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	Option     int    `json:"option"`
}

type lockPayload struct {
	QuestionID string `json:"questionId"`
}

type navigatePayload struct {
	Index          *int    `json:"index"`
	ScrollOffset   float64 `json:"scrollOffset"`
	ViewportHeight float64 `json:"viewportHeight"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startedPayload struct {
	SessionID        string            `json:"sessionId"`
	Quiz             domain.PublicQuiz `json:"quiz"`
	TimeLimitSeconds int               `json:"timeLimitSeconds,omitempty"`
}

type feedbackPayload struct {
	QuestionID     string `json:"questionId"`
	Correct        bool   `json:"correct"`
	CorrectAnswers []int  `json:"correctAnswers"`
	Explanation    string `json:"explanation,omitempty"`
}

// statePayload is a session snapshot plus the seconds left on a timed quiz.
type statePayload struct {
	attempt.Snapshot
	Remaining int `json:"remaining,omitempty"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type resultPayload struct {
	Result     domain.AttemptResult `json:"result"`
	Percentage int                  `json:"percentage"`
	Grade      string               `json:"grade"`
	TimedOut   bool                 `json:"timedOut"`
}

// connFeedback delivers lock cues to the viewer over the socket.
type connFeedback struct {
	session *atomic.Pointer[attempt.Session]
	push    func(outboundMessage[any]) bool
}

func (f connFeedback) Cue(questionID string, cue attempt.Cue) error {
	payload := feedbackPayload{QuestionID: questionID, Correct: cue == attempt.CueCorrect}
	if s := f.session.Load(); s != nil {
		quiz := s.Quiz()
		if i := quiz.QuestionIndex(questionID); i >= 0 {
			payload.CorrectAnswers = quiz.Questions[i].CorrectAnswers
			payload.Explanation = quiz.Questions[i].Explanation
		}
	}
	if !f.push(outboundMessage[any]{Type: "feedback", Payload: payload}) {
		return errSendBufferFull
	}
	return nil
}

// ServeWS upgrades HTTP requests to websockets and drives one attempt session per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("username")
	slug := r.URL.Query().Get("slug")
	if owner == "" || slug == "" {
		http.Error(w, "missing username or slug", http.StatusBadRequest)
		return
	}
	viewerID := h.viewer(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// push never blocks; it is called from the timer goroutine and from cue delivery.
	push := func(msg outboundMessage[any]) bool {
		select {
		case <-closeSignals:
			return false
		default:
		}
		select {
		case send <- msg:
			return true
		default:
			log.Printf("ws send buffer full, dropping %s", msg.Type)
			return false
		}
	}

	var current atomic.Pointer[attempt.Session]
	var resultOnce sync.Once
	sendResult := func(result domain.AttemptResult, timedOut bool) {
		resultOnce.Do(func() {
			push(outboundMessage[any]{Type: "result", Payload: resultPayload{
				Result:     result,
				Percentage: result.Percentage(),
				Grade:      result.Grade(),
				TimedOut:   timedOut,
			}})
		})
	}

	live, err := h.play.Open(r.Context(), app.OpenRequest{
		Owner:    owner,
		Slug:     slug,
		ViewerID: viewerID,
		Feedback: connFeedback{session: &current, push: push},
		OnTick: func(remaining int) {
			push(outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: remaining}})
			if remaining > 0 {
				return
			}
			if s := current.Load(); s != nil {
				if result, ok := s.Result(); ok {
					sendResult(result, true)
				}
			}
		},
		Attach: func(live *app.LiveAttempt) { current.Store(live.Session) },
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := live.ID()
	defer h.play.Close(r.Context(), sessionID)

	// The send channel is never closed: the timer may still push after the reader stops.
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	quiz := live.Session.Quiz()
	push(outboundMessage[any]{Type: "started", Payload: startedPayload{
		SessionID:        sessionID,
		Quiz:             quiz.Public(),
		TimeLimitSeconds: quiz.TimeLimitSeconds,
	}})
	state := func(snap attempt.Snapshot) outboundMessage[any] {
		return outboundMessage[any]{Type: "state", Payload: statePayload{Snapshot: snap, Remaining: live.Timer.Remaining()}}
	}
	push(state(live.Session.Snapshot()))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		snap, err := h.dispatch(r, sessionID, inbound)
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			continue
		}
		push(state(snap))
		if snap.Result != nil {
			sendResult(*snap.Result, false)
		}
	}

	close(closeSignals)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, sessionID string, in inboundMessage) (attempt.Snapshot, error) {
	ctx := r.Context()
	switch in.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return attempt.Snapshot{}, errors.New("invalid select payload")
		}
		return h.play.Select(ctx, sessionID, p.QuestionID, p.Option)
	case "lock":
		var p lockPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return attempt.Snapshot{}, errors.New("invalid lock payload")
		}
		return h.play.Lock(ctx, sessionID, p.QuestionID)
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return attempt.Snapshot{}, errors.New("invalid navigate payload")
		}
		if p.Index != nil {
			return h.play.Navigate(ctx, sessionID, *p.Index)
		}
		return h.play.Scroll(ctx, sessionID, p.ScrollOffset, p.ViewportHeight)
	case "next":
		return h.play.Next(ctx, sessionID)
	case "prev":
		return h.play.Prev(ctx, sessionID)
	case "finish":
		if _, err := h.play.Finish(ctx, sessionID); err != nil {
			return attempt.Snapshot{}, err
		}
		return h.play.Snapshot(ctx, sessionID)
	default:
		return attempt.Snapshot{}, errors.New("unsupported message type")
	}
}

// viewer resolves the signed-in viewer from the token query parameter or bearer header.
func (h *WSHandler) viewer(r *http.Request) string {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw, _ = bearer(r.Header.Get("Authorization"))
	}
	if raw == "" || h.tokens == nil {
		return ""
	}
	claims, err := h.tokens.Parse(raw)
	if err != nil {
		return ""
	}
	return claims.Subject
}
