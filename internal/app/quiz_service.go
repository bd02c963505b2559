package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"quiz-service/internal/domain"
)

// QuizStore is the authoritative store of quiz definitions.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error

	// ListQuestions returns the quiz's questions ordered by Order, or a
	// NotFoundError when the quiz does not exist.
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	CreateQuestion(ctx context.Context, question domain.Question) error
	// UpdateQuestion rewrites the question row and, when replaceOptions is
	// set, deletes and re-inserts its option set in the same transaction.
	UpdateQuestion(ctx context.Context, question domain.Question, replaceOptions bool) error
	DeleteQuestion(ctx context.Context, questionID string) error
}

// AttemptStore persists scored attempts. RecordAttempt must write the attempt
// and all of its responses atomically.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
	ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error)
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
}

// QuizRepository serves quiz content for the public read path (cache in front
// of a loader).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// AttemptFeed fans out committed attempts to live subscribers.
// The caller must invoke the returned cancel function to avoid leaks.
type AttemptFeed interface {
	Publish(ctx context.Context, event domain.AttemptEvent) error
	Subscribe(ctx context.Context, quizID string) (<-chan domain.AttemptEvent, func(), error)
}

// SubmissionResult is what a taker gets back after submitting.
type SubmissionResult struct {
	AttemptID   string
	QuizID      string
	SubmittedAt time.Time
	Scored      domain.ScoredResult
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	quizzes  QuizStore
	attempts AttemptStore
	cache    QuizRepository
	feed     AttemptFeed
	now      func() time.Time
	newID    func() string
}

func NewQuizService(quizzes QuizStore, attempts AttemptStore, cache QuizRepository, feed AttemptFeed) *QuizService {
	return &QuizService{
		quizzes:  quizzes,
		attempts: attempts,
		cache:    cache,
		feed:     feed,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// GetPublicQuiz returns the quiz without its answer key.
func (s *QuizService) GetPublicQuiz(ctx context.Context, quizID string) (domain.PublicQuiz, error) {
	quiz, err := s.cache.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return quiz.Public(), nil
}

// Submit validates, scores and records one submission.
func (s *QuizService) Submit(ctx context.Context, quizID, userName string, answers []domain.Answer) (SubmissionResult, error) {
	questions, err := s.ValidateSubmission(ctx, quizID, answers)
	if err != nil {
		return SubmissionResult{}, err
	}

	scored := Score(questions, answers)
	attemptID, submittedAt, err := s.RecordAttempt(ctx, quizID, scored, userName)
	if err != nil {
		return SubmissionResult{}, err
	}

	s.publish(ctx, domain.AttemptEvent{
		QuizID:      quizID,
		AttemptID:   attemptID,
		UserName:    userName,
		Score:       scored.Score,
		TotalPoints: scored.TotalPoints,
		Percentage:  scored.Percentage,
		SubmittedAt: submittedAt,
	})

	return SubmissionResult{
		AttemptID:   attemptID,
		QuizID:      quizID,
		SubmittedAt: submittedAt,
		Scored:      scored,
	}, nil
}

// RecordAttempt persists a scored result as a new attempt. Responses are
// built from scored.Responses by position, never looked up by value.
func (s *QuizService) RecordAttempt(ctx context.Context, quizID string, scored domain.ScoredResult, userName string) (string, time.Time, error) {
	attempt := domain.Attempt{
		ID:          s.newID(),
		QuizID:      quizID,
		UserName:    userName,
		Score:       scored.Score,
		TotalPoints: scored.TotalPoints,
		Percentage:  scored.Percentage,
		SubmittedAt: s.now(),
		Responses:   make([]domain.Response, len(scored.Responses)),
	}
	for i, r := range scored.Responses {
		attempt.Responses[i] = domain.Response{
			ID:               s.newID(),
			AttemptID:        attempt.ID,
			QuestionID:       r.Answer.QuestionID,
			SelectedOptionID: r.Answer.SelectedOptionID,
			TextResponse:     r.Answer.TextResponse,
			Correct:          r.Correct,
			PointsEarned:     r.PointsEarned,
		}
	}

	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		return "", time.Time{}, err
	}
	return attempt.ID, attempt.SubmittedAt, nil
}

// Subscribe returns a channel that receives attempts committed for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, quizID string) (<-chan domain.AttemptEvent, func(), error) {
	if _, err := s.quizzes.ListQuestions(ctx, quizID); err != nil {
		return nil, nil, err
	}
	return s.feed.Subscribe(ctx, quizID)
}

// ListAttempts returns the recorded attempts of a quiz, newest first.
func (s *QuizService) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.attempts.ListAttempts(ctx, quizID)
}

// GetAttempt returns one attempt with its responses.
func (s *QuizService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.GetAttempt(ctx, attemptID)
}

// publish never fails the submission: the attempt is already committed.
func (s *QuizService) publish(ctx context.Context, event domain.AttemptEvent) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		log.Printf("publish attempt %s: %v", event.AttemptID, err)
	}
}
