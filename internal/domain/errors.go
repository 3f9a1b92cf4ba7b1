package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. ConfigError rejects bad configuration (rubric weights)
// before any submission is accepted. ValidationError rejects one submission
// with enough detail to correct it. DependencyUnavailable marks storage or
// lookup failures; the conflict gate fails closed on it, the eligibility
// checker surfaces it. A blocked conflict result is not an error at all.

// Error codes surfaced on the wire.
const (
	CodeInvalidRubric        = "invalid_rubric"
	CodeIncompleteSubmission = "incomplete_submission"
	CodeInvalidInput         = "invalid_input"
)

type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", CodeInvalidRubric, e.Field, e.Msg)
}

func (e *ConfigError) Code() string { return CodeInvalidRubric }

type ValidationError struct {
	ErrCode string
	Field   string
	Msg     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code(), e.Field, e.Msg)
}

func (e *ValidationError) Code() string {
	if e.ErrCode == "" {
		return CodeInvalidInput
	}
	return e.ErrCode
}

// IncompleteSubmission reports a submission missing a required score.
func IncompleteSubmission(field, msg string) *ValidationError {
	return &ValidationError{ErrCode: CodeIncompleteSubmission, Field: field, Msg: msg}
}

// ErrDependencyUnavailable marks failures of external collaborators
// (storage, lookups). Wrap with DependencyFailure and test with errors.Is.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

func DependencyFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependencyUnavailable, err)
}

// ErrNotFound is returned by repositories for missing records.
var ErrNotFound = errors.New("not found")
