package app

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"quiz-service/internal/domain"
)

// AuthoringService contains the admin use cases. Every mutation is validated
// before it reaches the store.
type AuthoringService struct {
	store QuizStore
	cache QuizRepository
	now   func() time.Time
	newID func() string
}

func NewAuthoringService(store QuizStore, cache QuizRepository) *AuthoringService {
	return &AuthoringService{
		store: store,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *AuthoringService) CreateQuiz(ctx context.Context, title, description string) (domain.Quiz, error) {
	now := s.now()
	quiz := domain.Quiz{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Questions:   []domain.Question{},
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *AuthoringService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.store.ListQuizzes(ctx)
}

// GetQuiz returns the full quiz including the answer key.
func (s *AuthoringService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

func (s *AuthoringService) UpdateQuiz(ctx context.Context, quizID string, patch domain.QuizPatch) (domain.Quiz, error) {
	stored, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	merged := domain.MergeQuiz(stored, patch)
	if err := domain.ValidateQuiz(merged); err != nil {
		return domain.Quiz{}, err
	}
	merged.UpdatedAt = s.now()
	if err := s.store.UpdateQuiz(ctx, merged); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return merged, nil
}

// DeleteQuiz removes the quiz with its questions, options and attempts.
func (s *AuthoringService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

// ValidateAndCreateQuestion checks the question against its type's rules and
// persists it together with its options.
func (s *AuthoringService) ValidateAndCreateQuestion(ctx context.Context, quizID string, spec domain.Question) (domain.Question, error) {
	siblings, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}

	question := spec
	question.QuizID = quizID
	question.Options = append([]domain.Option(nil), spec.Options...)
	if question.Points == 0 {
		question.Points = domain.DefaultPoints
	}
	question.Normalize()
	if err := domain.ValidateQuestion(question); err != nil {
		return domain.Question{}, err
	}
	if err := checkQuestionOrder(siblings, question); err != nil {
		return domain.Question{}, err
	}

	now := s.now()
	question.ID = s.newID()
	question.CreatedAt = now
	question.UpdatedAt = now
	s.assignOptionIDs(&question)

	if err := s.store.CreateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, quizID)
	return question, nil
}

// ValidateAndUpdateQuestion merges patch into the stored question and
// validates the effective result before writing anything.
func (s *AuthoringService) ValidateAndUpdateQuestion(ctx context.Context, questionID string, patch domain.QuestionPatch) (domain.Question, error) {
	stored, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}

	question, replaceOptions := domain.MergeQuestion(stored, patch)
	if err := domain.ValidateQuestion(question); err != nil {
		return domain.Question{}, err
	}
	if question.Order != stored.Order {
		siblings, err := s.store.ListQuestions(ctx, stored.QuizID)
		if err != nil {
			return domain.Question{}, err
		}
		if err := checkQuestionOrder(siblings, question); err != nil {
			return domain.Question{}, err
		}
	}

	question.UpdatedAt = s.now()
	if replaceOptions {
		s.assignOptionIDs(&question)
	}
	if err := s.store.UpdateQuestion(ctx, question, replaceOptions); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, question.QuizID)
	return question, nil
}

func (s *AuthoringService) DeleteQuestion(ctx context.Context, questionID string) error {
	stored, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, stored.QuizID)
	return nil
}

func (s *AuthoringService) assignOptionIDs(question *domain.Question) {
	for i := range question.Options {
		question.Options[i].ID = s.newID()
		question.Options[i].QuestionID = question.ID
	}
	sort.SliceStable(question.Options, func(i, j int) bool {
		return question.Options[i].Order < question.Options[j].Order
	})
}

// invalidate drops the cached public view. A failure only delays visibility
// until the cache entry expires.
func (s *AuthoringService) invalidate(ctx context.Context, quizID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		log.Printf("invalidate quiz %s: %v", quizID, err)
	}
}

func checkQuestionOrder(siblings []domain.Question, question domain.Question) error {
	for _, other := range siblings {
		if other.ID != question.ID && other.Order == question.Order {
			return domain.Invalid(domain.ErrDuplicateQuestionOrder, "order %d is already used by question %s", question.Order, other.ID)
		}
	}
	return nil
}
