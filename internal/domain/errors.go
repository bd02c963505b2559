package domain

import (
	"errors"
	"fmt"
)

// ValidationError is returned when caller input breaks a structural rule.
// Reason is stable and identifies the rule; Detail names the offending item.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Detail
}

// Is matches another ValidationError with the same reason, or any ValidationError
// when the target reason is empty.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Invalid builds a ValidationError for a known rule with a formatted detail.
func Invalid(rule *ValidationError, format string, args ...any) error {
	return &ValidationError{Reason: rule.Reason, Detail: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return t.Entity == "" || t.Entity == e.Entity
}

// NotFound builds a NotFoundError for the given entity kind.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = &ValidationError{}
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = &NotFoundError{}

	ErrInsufficientOptions    = &ValidationError{Reason: "insufficient options"}
	ErrAmbiguousCorrectAnswer = &ValidationError{Reason: "ambiguous or missing correct answer"}
	ErrMissingCorrectAnswer   = &ValidationError{Reason: "missing correct answer"}
	ErrInvalidQuestionType    = &ValidationError{Reason: "invalid question type"}
	ErrInvalidPoints          = &ValidationError{Reason: "invalid points"}
	ErrMissingQuestionText    = &ValidationError{Reason: "missing question text"}
	ErrMissingOptionText      = &ValidationError{Reason: "missing option text"}
	ErrDuplicateOptionOrder   = &ValidationError{Reason: "duplicate option order"}
	ErrDuplicateQuestionOrder = &ValidationError{Reason: "duplicate question order"}
	ErrInvalidTitle           = &ValidationError{Reason: "invalid title"}
	ErrAnswerCountMismatch    = &ValidationError{Reason: "answer count mismatch"}
	ErrAnswerSetMismatch      = &ValidationError{Reason: "answer set mismatch"}
	ErrInvalidRequest         = &ValidationError{Reason: "invalid request"}

	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = &NotFoundError{Entity: "quiz"}
	// ErrQuestionNotFound indicates the question could not be loaded.
	ErrQuestionNotFound = &NotFoundError{Entity: "question"}
	// ErrAttemptNotFound indicates the attempt could not be loaded.
	ErrAttemptNotFound = &NotFoundError{Entity: "attempt"}

	// ErrUnauthorized is returned for a missing or invalid admin credential.
	ErrUnauthorized = errors.New("could not validate credentials")
)
