package domain

import (
	"slices"
	"time"
)

// QuestionKind distinguishes single-choice from multi-select questions.
type QuestionKind string

const (
	// SingleChoice questions accept exactly one selected option.
	SingleChoice QuestionKind = "MCQ"
	// MultiSelect questions accept any number of selected options.
	MultiSelect QuestionKind = "MULTI_SELECT"
)

// Question models a quiz question whose correct answer is a set of option indices.
type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"text" validate:"required"`
	Kind           QuestionKind `json:"type" validate:"required,oneof=MCQ MULTI_SELECT"`
	Options        []string     `json:"options" validate:"min=2,dive,required"`
	CorrectAnswers []int        `json:"correctAnswers" validate:"min=1,dive,min=0"`
	Explanation    string       `json:"explanation"`
	Order          int          `json:"order"`
}

// IsCorrect reports whether selected equals the correct answer set exactly.
// Partial and over-complete selections are both wrong.
func (q Question) IsCorrect(selected []int) bool {
	if len(selected) == 0 {
		return false
	}
	want := uniqueSorted(q.CorrectAnswers)
	got := uniqueSorted(selected)
	return slices.Equal(want, got)
}

// HasOption reports whether index addresses one of the question's options.
func (q Question) HasOption(index int) bool {
	return index >= 0 && index < len(q.Options)
}

func uniqueSorted(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Quiz is an ordered collection of questions published under creator username + slug.
type Quiz struct {
	ID               string     `json:"id"`
	CreatorID        string     `json:"creatorId"`
	CreatorUsername  string     `json:"creatorUsername"`
	Title            string     `json:"title" validate:"required"`
	Slug             string     `json:"slug"`
	Description      string     `json:"description"`
	Questions        []Question `json:"questions" validate:"min=1,dive"`
	TimeLimitSeconds int        `json:"timeLimitSeconds,omitempty" validate:"min=0"`
	Plays            int        `json:"plays"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// QuestionIndex returns the position of the question with the given ID, or -1.
func (q Quiz) QuestionIndex(questionID string) int {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// PublicQuestion is a question as shown to a viewer before it is answered.
type PublicQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Kind    QuestionKind `json:"type"`
	Options []string     `json:"options"`
	Order   int          `json:"order"`
}

// PublicQuiz hides correct answers and explanations.
type PublicQuiz struct {
	ID               string           `json:"id"`
	CreatorUsername  string           `json:"creatorUsername"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	Questions        []PublicQuestion `json:"questions"`
	TimeLimitSeconds int              `json:"timeLimitSeconds,omitempty"`
	Plays            int              `json:"plays"`
}

// Public strips answer data from the quiz.
func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, PublicQuestion{
			ID:      question.ID,
			Text:    question.Text,
			Kind:    question.Kind,
			Options: slices.Clone(question.Options),
			Order:   question.Order,
		})
	}
	return PublicQuiz{
		ID:               q.ID,
		CreatorUsername:  q.CreatorUsername,
		Title:            q.Title,
		Slug:             q.Slug,
		Description:      q.Description,
		Questions:        questions,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Plays:            q.Plays,
	}
}

// QuestionOutcome is one row of an attempt's per-question breakdown.
type QuestionOutcome struct {
	QuestionID      string `json:"questionId"`
	TimeSpent       int    `json:"timeSpent"`
	IsCorrect       bool   `json:"isCorrect"`
	SelectedOptions []int  `json:"selectedOptions"`
}

// AttemptResult is the immutable record a finished attempt produces.
type AttemptResult struct {
	ID                string            `json:"id,omitempty"`
	QuizID            string            `json:"quizId"`
	UserID            string            `json:"userId"`
	Score             int               `json:"score"`
	MaxScore          int               `json:"maxScore"`
	TimeTakenSeconds  int               `json:"timeTakenSeconds"`
	QuestionBreakdown []QuestionOutcome `json:"questionBreakdown"`
	CompletedAt       time.Time         `json:"completedAt"`
}

// Percentage returns the rounded score percentage.
func (r AttemptResult) Percentage() int {
	return Percentage(r.Score, r.MaxScore)
}

// Grade returns the letter grade for the attempt.
func (r AttemptResult) Grade() string {
	return Grade(r.Percentage())
}

// Percentage rounds score/max to a whole percent; zero when max is zero.
func Percentage(score, max int) int {
	if max <= 0 {
		return 0
	}
	return (score*200 + max) / (2 * max)
}

// Grade maps a percentage to S/A/B/C/D/F.
func Grade(percentage int) string {
	switch {
	case percentage >= 100:
		return "S"
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// User is a quiz creator or viewer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	IsCreator    bool      `json:"isCreator"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ExternalIdentity is a signed-in identity handed over by an external auth provider.
type ExternalIdentity struct {
	ExternalID string `json:"externalId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl"`
}

// LeaderboardEntry is one ranked attempt of a quiz.
type LeaderboardEntry struct {
	AttemptID   string    `json:"attemptId"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	Percentage  int       `json:"percentage"`
	TimeTaken   int       `json:"timeTaken"`
	CompletedAt time.Time `json:"completedAt"`
}
