package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quiz owns an ordered collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `json:"questions"`
}

// QuizPatch carries the quiz fields an update touches; nil means unchanged.
type QuizPatch struct {
	Title       *string
	Description *string
}

// Option represents a possible answer for a choice-type question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"option_text"`
	Correct    bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

// Question belongs to exactly one quiz and owns its options.
type Question struct {
	ID                string       `json:"id"`
	QuizID            string       `json:"quiz_id"`
	Text              string       `json:"question_text"`
	Type              QuestionType `json:"question_type"`
	Points            int          `json:"points"`
	Order             int          `json:"order"`
	CorrectAnswerText string       `json:"correct_answer_text,omitempty"`
	Options           []Option     `json:"options"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Answer is one untrusted entry of a submission. SelectedOptionID is empty
// when no option was chosen.
type Answer struct {
	QuestionID       string
	SelectedOptionID string
	TextResponse     string
}

// ScoredResponse pairs a submitted answer with its computed outcome.
type ScoredResponse struct {
	Answer         Answer
	QuestionText   string
	Correct        bool
	PointsEarned   int
	QuestionPoints int
}

// ScoredResult is the output of scoring one submission. Responses follow the
// order of the submitted answers.
type ScoredResult struct {
	Responses   []ScoredResponse
	Score       int
	TotalPoints int
	Percentage  decimal.Decimal
}

// Attempt is one taker's scored submission. It is never mutated after creation.
type Attempt struct {
	ID          string
	QuizID      string
	UserName    string
	Score       int
	TotalPoints int
	Percentage  decimal.Decimal
	SubmittedAt time.Time
	Responses   []Response
}

// Response is one persisted answer within an attempt.
type Response struct {
	ID               string
	AttemptID        string
	QuestionID       string
	SelectedOptionID string
	TextResponse     string
	Correct          bool
	PointsEarned     int
}

// AttemptEvent is published to live subscribers after an attempt commits.
type AttemptEvent struct {
	QuizID      string          `json:"quiz_id"`
	AttemptID   string          `json:"attempt_id"`
	UserName    string          `json:"user_name,omitempty"`
	Score       int             `json:"score"`
	TotalPoints int             `json:"total_points"`
	Percentage  decimal.Decimal `json:"percentage"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
