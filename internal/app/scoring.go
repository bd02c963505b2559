package app

import (
	"strings"

	"github.com/shopspring/decimal"
	"quiz-service/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Score grades answers against the authoritative questions. It has no side
// effects: the same input always yields the same result, and the aggregate
// does not depend on answer order. Responses keep the order of answers.
func Score(questions []domain.Question, answers []domain.Answer) domain.ScoredResult {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	result := domain.ScoredResult{
		Responses:   make([]domain.ScoredResponse, 0, len(answers)),
		TotalPoints: domain.TotalPoints(questions),
	}
	for _, answer := range answers {
		resp := domain.ScoredResponse{Answer: answer}
		if question, ok := byID[answer.QuestionID]; ok {
			resp.QuestionText = question.Text
			resp.QuestionPoints = question.Points
			if isCorrect(question, answer) {
				resp.Correct = true
				resp.PointsEarned = question.Points
			}
		}
		result.Score += resp.PointsEarned
		result.Responses = append(result.Responses, resp)
	}
	result.Percentage = Percentage(result.Score, result.TotalPoints)
	return result
}

// Percentage returns score/total*100 rounded to two decimal places, or zero
// when there is nothing to score.
func Percentage(score, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(score)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

func isCorrect(question domain.Question, answer domain.Answer) bool {
	switch question.Type {
	case domain.QuestionTypeMCQ, domain.QuestionTypeTrueFalse:
		return selectedCorrectOption(question, answer.SelectedOptionID)
	case domain.QuestionTypeText:
		return textMatches(answer.TextResponse, question.CorrectAnswerText)
	default:
		return false
	}
}

// selectedCorrectOption only considers options owned by the question, so an
// option id taken from another question is simply wrong.
func selectedCorrectOption(question domain.Question, optionID string) bool {
	if optionID == "" {
		return false
	}
	for _, opt := range question.Options {
		if opt.ID == optionID {
			return opt.Correct
		}
	}
	return false
}

func textMatches(response, expected string) bool {
	got := strings.TrimSpace(response)
	if got == "" {
		return false
	}
	return strings.EqualFold(got, strings.TrimSpace(expected))
}
