package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-feed-service/internal/domain"
)

// DefaultQuizTitle is used when a creator publishes without a title.
const DefaultQuizTitle = "Untitled Quiz"

// QuizDraft is the creator-supplied content of a quiz.
type QuizDraft struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Questions        []domain.Question `json:"questions"`
	TimeLimitSeconds int               `json:"timeLimitSeconds"`
}

// CatalogService manages authored quizzes.
type CatalogService struct {
	quizzes  QuizStore
	attempts AttemptStore
	cache    QuizRepository
	now      func() time.Time
}

func NewCatalogService(quizzes QuizStore, attempts AttemptStore, cache QuizRepository) *CatalogService {
	return &CatalogService{quizzes: quizzes, attempts: attempts, cache: cache, now: time.Now}
}

// Create validates and publishes a quiz under the creator's username.
func (s *CatalogService) Create(ctx context.Context, creator domain.User, draft QuizDraft) (domain.Quiz, error) {
	quiz := buildQuiz(draft)
	quiz.ID = uuid.NewString()
	quiz.CreatorID = creator.ID
	quiz.CreatorUsername = creator.Username
	quiz.CreatedAt = s.now().UTC()
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.ensureSlugFree(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Update replaces the content of a quiz. Earlier attempts no longer match the
// questions and are deleted.
func (s *CatalogService) Update(ctx context.Context, creator domain.User, quizID string, draft QuizDraft) (domain.Quiz, error) {
	existing, err := s.owned(ctx, creator, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := buildQuiz(draft)
	quiz.ID = existing.ID
	quiz.CreatorID = existing.CreatorID
	quiz.CreatorUsername = existing.CreatorUsername
	quiz.CreatedAt = existing.CreatedAt
	quiz.Plays = existing.Plays
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Slug != existing.Slug {
		if err := s.ensureSlugFree(ctx, quiz); err != nil {
			return domain.Quiz{}, err
		}
	}

	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.attempts.DeleteAttemptsByQuiz(ctx, quiz.ID); err != nil {
		return domain.Quiz{}, fmt.Errorf("reset attempts: %w", err)
	}
	s.invalidate(ctx, existing.CreatorUsername, existing.Slug)
	s.invalidate(ctx, quiz.CreatorUsername, quiz.Slug)
	return quiz, nil
}

// Delete removes a quiz and every attempt made on it.
func (s *CatalogService) Delete(ctx context.Context, creator domain.User, quizID string) error {
	existing, err := s.owned(ctx, creator, quizID)
	if err != nil {
		return err
	}
	if err := s.attempts.DeleteAttemptsByQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, existing.CreatorUsername, existing.Slug)
	return nil
}

// ListByCreator returns the creator's quizzes, newest first.
func (s *CatalogService) ListByCreator(ctx context.Context, creatorID string) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.ListQuizzesByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

// GetPublic returns the quiz as a viewer sees it before answering.
func (s *CatalogService) GetPublic(ctx context.Context, owner, slug string) (domain.PublicQuiz, error) {
	quiz, err := s.cache.GetQuiz(ctx, owner, slug)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return quiz.Public(), nil
}

// RecordPlay counts one play of a quiz.
func (s *CatalogService) RecordPlay(ctx context.Context, quizID string) error {
	return s.quizzes.IncrementPlays(ctx, quizID)
}

func (s *CatalogService) owned(ctx context.Context, creator domain.User, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuizByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.CreatorID != creator.ID {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

func (s *CatalogService) ensureSlugFree(ctx context.Context, quiz domain.Quiz) error {
	if quiz.Slug == "" {
		return fmt.Errorf("%w: title has no usable characters for a slug", domain.ErrInvalidQuiz)
	}
	_, err := s.quizzes.LoadQuiz(ctx, quiz.CreatorUsername, quiz.Slug)
	switch {
	case err == nil:
		return domain.ErrSlugTaken
	case errors.Is(err, domain.ErrQuizNotFound):
		return nil
	default:
		return err
	}
}

func (s *CatalogService) invalidate(ctx context.Context, owner, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, owner, slug); err != nil {
		log.Printf("quiz cache invalidate %s/%s failed: %v", owner, slug, err)
	}
}

func buildQuiz(draft QuizDraft) domain.Quiz {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = DefaultQuizTitle
	}
	questions := make([]domain.Question, len(draft.Questions))
	for i, q := range draft.Questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.Order = i
		questions[i] = q
	}
	return domain.Quiz{
		Title:            title,
		Slug:             domain.Slugify(title),
		Description:      strings.TrimSpace(draft.Description),
		Questions:        questions,
		TimeLimitSeconds: draft.TimeLimitSeconds,
	}
}
