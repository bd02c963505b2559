package app

import (
	"context"

	"quiz-service/internal/domain"
)

// ValidateSubmission loads the quiz's current questions and checks that the
// answers cover them exactly. The questions are returned ordered for scoring.
func (s *QuizService) ValidateSubmission(ctx context.Context, quizID string, answers []domain.Answer) ([]domain.Question, error) {
	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := checkAnswerSet(questions, answers); err != nil {
		return nil, err
	}
	return questions, nil
}

func checkAnswerSet(questions []domain.Question, answers []domain.Answer) error {
	if len(answers) != len(questions) {
		return domain.Invalid(domain.ErrAnswerCountMismatch, "expected %d answers, got %d", len(questions), len(answers))
	}

	expected := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		expected[q.ID] = struct{}{}
	}
	submitted := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if _, ok := expected[a.QuestionID]; !ok {
			return domain.Invalid(domain.ErrAnswerSetMismatch, "question %q is not part of this quiz", a.QuestionID)
		}
		submitted[a.QuestionID] = struct{}{}
	}
	if len(submitted) != len(expected) {
		return domain.Invalid(domain.ErrAnswerSetMismatch, "%d of %d questions answered", len(submitted), len(expected))
	}
	return nil
}
