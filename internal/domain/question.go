package domain

import (
	"strings"
	"unicode/utf8"
)

// QuestionType is the closed set of supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeTrueFalse QuestionType = "true_false"
	QuestionTypeText      QuestionType = "text"
)

// ParseQuestionType maps the wire value onto a QuestionType.
func ParseQuestionType(raw string) (QuestionType, error) {
	t := QuestionType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", Invalid(ErrInvalidQuestionType, "%q", raw)
	}
	return t, nil
}

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeTrueFalse, QuestionTypeText:
		return true
	}
	return false
}

// IsChoice reports whether answers are given by selecting an option.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeMCQ || t == QuestionTypeTrueFalse
}

const maxTitleLength = 255

// DefaultPoints applies to a new question created without a point value.
const DefaultPoints = 1

// QuestionPatch carries the question fields an update touches. A nil pointer
// leaves the stored value in place; a non-nil Options slice (even empty)
// replaces the whole option set.
type QuestionPatch struct {
	Text              *string
	Type              *QuestionType
	Points            *int
	Order             *int
	CorrectAnswerText *string
	Options           []Option
}

// MergeQuestion applies patch to stored and returns the effective question
// together with whether its option set has to be rewritten.
func MergeQuestion(stored Question, patch QuestionPatch) (Question, bool) {
	merged := stored
	merged.Options = append([]Option(nil), stored.Options...)
	replaceOptions := false

	if patch.Text != nil {
		merged.Text = *patch.Text
	}
	if patch.Type != nil {
		merged.Type = *patch.Type
	}
	if patch.Points != nil {
		merged.Points = *patch.Points
	}
	if patch.Order != nil {
		merged.Order = *patch.Order
	}
	if patch.CorrectAnswerText != nil {
		merged.CorrectAnswerText = *patch.CorrectAnswerText
	}
	if patch.Options != nil {
		merged.Options = append([]Option(nil), patch.Options...)
		replaceOptions = true
	}

	if merged.Type == QuestionTypeText && len(stored.Options) > 0 {
		replaceOptions = true
	}
	merged.Normalize()
	return merged, replaceOptions
}

// Normalize drops the answer fields that do not apply to the question type.
func (q *Question) Normalize() {
	if q.Type.IsChoice() {
		q.CorrectAnswerText = ""
		return
	}
	if q.Type == QuestionTypeText {
		q.Options = nil
	}
}

// ValidateQuestion enforces the structural invariants scoring relies on.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return Invalid(ErrMissingQuestionText, "question at order %d", q.Order)
	}
	if q.Points < 1 {
		return Invalid(ErrInvalidPoints, "points must be at least 1, got %d", q.Points)
	}

	switch q.Type {
	case QuestionTypeMCQ, QuestionTypeTrueFalse:
		return validateChoiceOptions(q)
	case QuestionTypeText:
		if strings.TrimSpace(q.CorrectAnswerText) == "" {
			return Invalid(ErrMissingCorrectAnswer, "text question at order %d needs correct_answer_text", q.Order)
		}
		return nil
	default:
		return Invalid(ErrInvalidQuestionType, "%q", q.Type)
	}
}

func validateChoiceOptions(q Question) error {
	if len(q.Options) < 2 {
		return Invalid(ErrInsufficientOptions, "%s question at order %d has %d options, needs at least 2", q.Type, q.Order, len(q.Options))
	}

	correct := 0
	seen := make(map[int]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return Invalid(ErrMissingOptionText, "option at order %d", opt.Order)
		}
		if _, dup := seen[opt.Order]; dup {
			return Invalid(ErrDuplicateOptionOrder, "order %d used more than once", opt.Order)
		}
		seen[opt.Order] = struct{}{}
		if opt.Correct {
			correct++
		}
	}
	if correct != 1 {
		return Invalid(ErrAmbiguousCorrectAnswer, "%s question at order %d has %d correct options, needs exactly 1", q.Type, q.Order, correct)
	}
	return nil
}

// MergeQuiz applies patch to stored and returns the effective quiz.
func MergeQuiz(stored Quiz, patch QuizPatch) Quiz {
	merged := stored
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	return merged
}

// ValidateQuiz checks the quiz header fields.
func ValidateQuiz(q Quiz) error {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		return Invalid(ErrInvalidTitle, "title is required")
	}
	if utf8.RuneCountInString(q.Title) > maxTitleLength {
		return Invalid(ErrInvalidTitle, "title exceeds %d characters", maxTitleLength)
	}
	return nil
}

// TotalPoints sums the point values of the given questions.
func TotalPoints(questions []Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}
