package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type quizRequest struct {
	Title       string `json:"title"`
	Description string `json:"description" validate:"max=2000"`
}

// quizSummary is a quiz header as listed for administrators.
type quizSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type quizPatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type optionRequest struct {
	Text    string `json:"option_text" validate:"max=1000"`
	Correct bool   `json:"is_correct"`
	Order   int    `json:"order" validate:"min=0"`
}

type questionRequest struct {
	Text              string          `json:"question_text" validate:"max=2000"`
	Type              string          `json:"question_type" validate:"required"`
	Points            *int            `json:"points" validate:"omitempty,min=1"`
	Order             int             `json:"order" validate:"min=0"`
	CorrectAnswerText string          `json:"correct_answer_text" validate:"max=1000"`
	Options           []optionRequest `json:"options" validate:"dive"`
}

// questionPatchRequest leaves absent fields untouched. A present options
// array, even an empty one, replaces the option set.
type questionPatchRequest struct {
	Text              *string         `json:"question_text" validate:"omitempty,max=2000"`
	Type              *string         `json:"question_type"`
	Points            *int            `json:"points" validate:"omitempty,min=1"`
	Order             *int            `json:"order" validate:"omitempty,min=0"`
	CorrectAnswerText *string         `json:"correct_answer_text" validate:"omitempty,max=1000"`
	Options           []optionRequest `json:"options" validate:"omitempty,dive"`
}

type answerRequest struct {
	QuestionID       string `json:"question_id" validate:"required"`
	SelectedOptionID string `json:"selected_option_id"`
	TextResponse     string `json:"text_response" validate:"max=1000"`
}

type submitRequest struct {
	UserName string          `json:"user_name" validate:"max=255"`
	Answers  []answerRequest `json:"answers" validate:"dive"`
}

type scoredResponseBody struct {
	QuestionID       string `json:"question_id"`
	QuestionText     string `json:"question_text"`
	SelectedOptionID string `json:"selected_option_id,omitempty"`
	TextResponse     string `json:"text_response,omitempty"`
	Correct          bool   `json:"is_correct"`
	PointsEarned     int    `json:"points_earned"`
	QuestionPoints   int    `json:"question_points"`
}

type submitResponse struct {
	AttemptID   string               `json:"attempt_id"`
	QuizID      string               `json:"quiz_id"`
	Score       int                  `json:"score"`
	TotalPoints int                  `json:"total_points"`
	Percentage  json.Number          `json:"percentage"`
	SubmittedAt time.Time            `json:"submitted_at"`
	Responses   []scoredResponseBody `json:"responses"`
}

type responseBody struct {
	ID               string `json:"id"`
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id,omitempty"`
	TextResponse     string `json:"text_response,omitempty"`
	Correct          bool   `json:"is_correct"`
	PointsEarned     int    `json:"points_earned"`
}

type attemptBody struct {
	ID          string         `json:"id"`
	QuizID      string         `json:"quiz_id"`
	UserName    string         `json:"user_name,omitempty"`
	Score       int            `json:"score"`
	TotalPoints int            `json:"total_points"`
	Percentage  json.Number    `json:"percentage"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Responses   []responseBody `json:"responses,omitempty"`
}

type attemptEventBody struct {
	QuizID      string      `json:"quiz_id"`
	AttemptID   string      `json:"attempt_id"`
	UserName    string      `json:"user_name,omitempty"`
	Score       int         `json:"score"`
	TotalPoints int         `json:"total_points"`
	Percentage  json.Number `json:"percentage"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// percentage renders with exactly two decimals as a JSON number.
func percentage(p decimal.Decimal) json.Number {
	return json.Number(p.StringFixed(2))
}

func (req questionRequest) toDomain() (domain.Question, error) {
	qt, err := domain.ParseQuestionType(req.Type)
	if err != nil {
		return domain.Question{}, err
	}
	q := domain.Question{
		Text:              req.Text,
		Type:              qt,
		Order:             req.Order,
		CorrectAnswerText: req.CorrectAnswerText,
		Options:           toOptions(req.Options),
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	return q, nil
}

func (req questionPatchRequest) toDomain() (domain.QuestionPatch, error) {
	patch := domain.QuestionPatch{
		Text:              req.Text,
		Points:            req.Points,
		Order:             req.Order,
		CorrectAnswerText: req.CorrectAnswerText,
	}
	if req.Type != nil {
		qt, err := domain.ParseQuestionType(*req.Type)
		if err != nil {
			return domain.QuestionPatch{}, err
		}
		patch.Type = &qt
	}
	if req.Options != nil {
		patch.Options = toOptions(req.Options)
	}
	return patch, nil
}

func toOptions(reqs []optionRequest) []domain.Option {
	if reqs == nil {
		return nil
	}
	out := make([]domain.Option, 0, len(reqs))
	for _, o := range reqs {
		out = append(out, domain.Option{Text: o.Text, Correct: o.Correct, Order: o.Order})
	}
	return out
}

func (req submitRequest) toDomain() []domain.Answer {
	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.Answer{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.SelectedOptionID,
			TextResponse:     a.TextResponse,
		})
	}
	return answers
}

func newSubmitResponse(res app.SubmissionResult) submitResponse {
	out := submitResponse{
		AttemptID:   res.AttemptID,
		QuizID:      res.QuizID,
		Score:       res.Scored.Score,
		TotalPoints: res.Scored.TotalPoints,
		Percentage:  percentage(res.Scored.Percentage),
		SubmittedAt: res.SubmittedAt,
		Responses:   make([]scoredResponseBody, 0, len(res.Scored.Responses)),
	}
	for _, r := range res.Scored.Responses {
		out.Responses = append(out.Responses, scoredResponseBody{
			QuestionID:       r.Answer.QuestionID,
			QuestionText:     r.QuestionText,
			SelectedOptionID: r.Answer.SelectedOptionID,
			TextResponse:     r.Answer.TextResponse,
			Correct:          r.Correct,
			PointsEarned:     r.PointsEarned,
			QuestionPoints:   r.QuestionPoints,
		})
	}
	return out
}

func newAttemptBody(a domain.Attempt) attemptBody {
	out := attemptBody{
		ID:          a.ID,
		QuizID:      a.QuizID,
		UserName:    a.UserName,
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  percentage(a.Percentage),
		SubmittedAt: a.SubmittedAt,
	}
	for _, r := range a.Responses {
		out.Responses = append(out.Responses, responseBody{
			ID:               r.ID,
			QuestionID:       r.QuestionID,
			SelectedOptionID: r.SelectedOptionID,
			TextResponse:     r.TextResponse,
			Correct:          r.Correct,
			PointsEarned:     r.PointsEarned,
		})
	}
	return out
}

func newAttemptEventBody(ev domain.AttemptEvent) attemptEventBody {
	return attemptEventBody{
		QuizID:      ev.QuizID,
		AttemptID:   ev.AttemptID,
		UserName:    ev.UserName,
		Score:       ev.Score,
		TotalPoints: ev.TotalPoints,
		Percentage:  percentage(ev.Percentage),
		SubmittedAt: ev.SubmittedAt,
	}
}
