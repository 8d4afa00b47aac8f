package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-feed-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email"`
	Username     string    `bun:"username"`
	Name         string    `bun:"name"`
	Avatar       string    `bun:"avatar"`
	PasswordHash string    `bun:"password_hash"`
	IsCreator    bool      `bun:"is_creator"`
	CreatedAt    time.Time `bun:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		Name:         r.Name,
		Avatar:       r.Avatar,
		PasswordHash: r.PasswordHash,
		IsCreator:    r.IsCreator,
		CreatedAt:    r.CreatedAt,
	}
}

func userFromDomain(u domain.User) *userRow {
	return &userRow{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		Avatar:       u.Avatar,
		PasswordHash: u.PasswordHash,
		IsCreator:    u.IsCreator,
		CreatedAt:    u.CreatedAt,
	}
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID               string            `bun:"id,pk"`
	CreatorID        string            `bun:"creator_id"`
	CreatorUsername  string            `bun:"creator_username"`
	Title            string            `bun:"title"`
	Slug             string            `bun:"slug"`
	Description      string            `bun:"description"`
	Questions        []domain.Question `bun:"questions,type:jsonb"`
	TimeLimitSeconds int               `bun:"time_limit_seconds"`
	Plays            int               `bun:"plays"`
	CreatedAt        time.Time         `bun:"created_at"`
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:               r.ID,
		CreatorID:        r.CreatorID,
		CreatorUsername:  r.CreatorUsername,
		Title:            r.Title,
		Slug:             r.Slug,
		Description:      r.Description,
		Questions:        r.Questions,
		TimeLimitSeconds: r.TimeLimitSeconds,
		Plays:            r.Plays,
		CreatedAt:        r.CreatedAt,
	}
}

func quizFromDomain(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:               q.ID,
		CreatorID:        q.CreatorID,
		CreatorUsername:  q.CreatorUsername,
		Title:            q.Title,
		Slug:             q.Slug,
		Description:      q.Description,
		Questions:        q.Questions,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Plays:            q.Plays,
		CreatedAt:        q.CreatedAt,
	}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID                string                   `bun:"id,pk"`
	QuizID            string                   `bun:"quiz_id"`
	UserID            string                   `bun:"user_id"`
	Score             int                      `bun:"score"`
	MaxScore          int                      `bun:"max_score"`
	TimeTakenSeconds  int                      `bun:"time_taken_seconds"`
	QuestionBreakdown []domain.QuestionOutcome `bun:"question_breakdown,type:jsonb"`
	CompletedAt       time.Time                `bun:"completed_at"`
}

func (r attemptRow) toDomain() domain.AttemptResult {
	return domain.AttemptResult{
		ID:                r.ID,
		QuizID:            r.QuizID,
		UserID:            r.UserID,
		Score:             r.Score,
		MaxScore:          r.MaxScore,
		TimeTakenSeconds:  r.TimeTakenSeconds,
		QuestionBreakdown: r.QuestionBreakdown,
		CompletedAt:       r.CompletedAt,
	}
}

func attemptFromDomain(a domain.AttemptResult) *attemptRow {
	return &attemptRow{
		ID:                a.ID,
		QuizID:            a.QuizID,
		UserID:            a.UserID,
		Score:             a.Score,
		MaxScore:          a.MaxScore,
		TimeTakenSeconds:  a.TimeTakenSeconds,
		QuestionBreakdown: a.QuestionBreakdown,
		CompletedAt:       a.CompletedAt,
	}
}

// uniqueViolation returns the violated constraint name for a 23505 error.
func uniqueViolation(err error) (string, bool) {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return pgErr.Field('n'), true
	}
	return "", false
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
