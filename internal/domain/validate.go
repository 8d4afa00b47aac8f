package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate runs struct-tag validation on any request or model value.
func Validate(v any) error {
	return validate.Struct(v)
}

// ValidateQuiz checks an authored quiz before it is stored. Errors wrap ErrInvalidQuiz.
func ValidateQuiz(quiz Quiz) error {
	if err := validate.Struct(quiz); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	seen := make(map[string]struct{}, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if q.ID != "" {
			if _, dup := seen[q.ID]; dup {
				return fmt.Errorf("%w: question %d: duplicate id %q", ErrInvalidQuiz, i+1, q.ID)
			}
			seen[q.ID] = struct{}{}
		}
		if err := validateAnswers(q); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuiz, i+1, err)
		}
	}
	return nil
}

func validateAnswers(q Question) error {
	marked := make(map[int]struct{}, len(q.CorrectAnswers))
	for _, idx := range q.CorrectAnswers {
		if !q.HasOption(idx) {
			return fmt.Errorf("correct answer %d out of range", idx)
		}
		if _, dup := marked[idx]; dup {
			return fmt.Errorf("correct answer %d listed twice", idx)
		}
		marked[idx] = struct{}{}
	}
	if q.Kind == SingleChoice && len(marked) != 1 {
		return fmt.Errorf("single-choice question needs exactly one correct answer, got %d", len(marked))
	}
	return nil
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// Slugify turns a quiz title into its URL slug.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
