package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"quiz-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,nullzero"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID                string    `bun:"id,pk"`
	QuizID            string    `bun:"quiz_id,notnull"`
	Text              string    `bun:"question_text,notnull"`
	Type              string    `bun:"question_type,notnull"`
	Points            int       `bun:"points,notnull"`
	Position          int       `bun:"position,notnull"`
	CorrectAnswerText string    `bun:"correct_answer_text,nullzero"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	UpdatedAt         time.Time `bun:"updated_at,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:question_options,alias:qo"`

	ID         string `bun:"id,pk"`
	QuestionID string `bun:"question_id,notnull"`
	Text       string `bun:"option_text,notnull"`
	Correct    bool   `bun:"is_correct,notnull"`
	Position   int    `bun:"position,notnull"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID          string          `bun:"id,pk"`
	QuizID      string          `bun:"quiz_id,notnull"`
	UserName    string          `bun:"user_name,nullzero"`
	Score       int             `bun:"score,notnull"`
	TotalPoints int             `bun:"total_points,notnull"`
	Percentage  decimal.Decimal `bun:"percentage,notnull"`
	SubmittedAt time.Time       `bun:"submitted_at,notnull"`
}

type responseRow struct {
	bun.BaseModel `bun:"table:quiz_responses,alias:qr"`

	ID               string `bun:"id,pk"`
	AttemptID        string `bun:"attempt_id,notnull"`
	QuestionID       string `bun:"question_id,notnull"`
	SelectedOptionID string `bun:"selected_option_id,nullzero"`
	TextResponse     string `bun:"text_response,nullzero"`
	Correct          bool   `bun:"is_correct,notnull"`
	PointsEarned     int    `bun:"points_earned,notnull"`
	Position         int    `bun:"position,notnull"`
}

func newQuizRow(q domain.Quiz) quizRow {
	return quizRow{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func newQuestionRow(q domain.Question) questionRow {
	return questionRow{
		ID:                q.ID,
		QuizID:            q.QuizID,
		Text:              q.Text,
		Type:              string(q.Type),
		Points:            q.Points,
		Position:          q.Order,
		CorrectAnswerText: q.CorrectAnswerText,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

func (r questionRow) toDomain(options []optionRow) domain.Question {
	q := domain.Question{
		ID:                r.ID,
		QuizID:            r.QuizID,
		Text:              r.Text,
		Type:              domain.QuestionType(r.Type),
		Points:            r.Points,
		Order:             r.Position,
		CorrectAnswerText: r.CorrectAnswerText,
		Options:           make([]domain.Option, 0, len(options)),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	for _, o := range options {
		q.Options = append(q.Options, domain.Option{
			ID:         o.ID,
			QuestionID: o.QuestionID,
			Text:       o.Text,
			Correct:    o.Correct,
			Order:      o.Position,
		})
	}
	return q
}

func newOptionRows(q domain.Question) []optionRow {
	rows := make([]optionRow, 0, len(q.Options))
	for _, o := range q.Options {
		rows = append(rows, optionRow{
			ID:         o.ID,
			QuestionID: q.ID,
			Text:       o.Text,
			Correct:    o.Correct,
			Position:   o.Order,
		})
	}
	return rows
}

func newAttemptRows(a domain.Attempt) (attemptRow, []responseRow) {
	attempt := attemptRow{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserName:    a.UserName,
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  a.Percentage,
		SubmittedAt: a.SubmittedAt,
	}
	responses := make([]responseRow, 0, len(a.Responses))
	for i, r := range a.Responses {
		responses = append(responses, responseRow{
			ID:               r.ID,
			AttemptID:        a.ID,
			QuestionID:       r.QuestionID,
			SelectedOptionID: r.SelectedOptionID,
			TextResponse:     r.TextResponse,
			Correct:          r.Correct,
			PointsEarned:     r.PointsEarned,
			Position:         i,
		})
	}
	return attempt, responses
}

func (r attemptRow) toDomain(responses []responseRow) domain.Attempt {
	a := domain.Attempt{
		ID:          r.ID,
		QuizID:      r.QuizID,
		UserName:    r.UserName,
		Score:       r.Score,
		TotalPoints: r.TotalPoints,
		Percentage:  r.Percentage,
		SubmittedAt: r.SubmittedAt,
	}
	if responses == nil {
		return a
	}
	a.Responses = make([]domain.Response, 0, len(responses))
	for _, resp := range responses {
		a.Responses = append(a.Responses, domain.Response{
			ID:               resp.ID,
			AttemptID:        resp.AttemptID,
			QuestionID:       resp.QuestionID,
			SelectedOptionID: resp.SelectedOptionID,
			TextResponse:     resp.TextResponse,
			Correct:          resp.Correct,
			PointsEarned:     resp.PointsEarned,
		})
	}
	return a
}
