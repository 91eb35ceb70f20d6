package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyResponse is returned by providers that got no candidate text back.
var ErrEmptyResponse = errors.New("ai returned an empty response")

// ErrEmptyInput is a caller error: the script, suggestion or question was blank.
var ErrEmptyInput = errors.New("input cannot be empty")

// Kind classifies an AI client failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindQuota      Kind = "quota"
	KindMalformed  Kind = "malformed"
	KindIncomplete Kind = "incomplete"
)

// Error is the typed failure of one AI client operation. Its message is
// meant to be shown to the user as-is.
type Error struct {
	Task Task
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindValidation {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", failurePrefix(e.Task), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func failurePrefix(t Task) string {
	switch t {
	case TaskAnalyze:
		return "failed to get analysis from the AI provider"
	case TaskRefactor:
		return "failed to get refactoring from the AI provider"
	case TaskRefactorAll:
		return "failed to get refactorings from the AI provider"
	default:
		return "failed to get an answer from the AI provider"
	}
}

// KindOf returns the failure kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
