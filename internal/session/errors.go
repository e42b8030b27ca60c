package session

import "errors"

// InputError rejects a line before any turn starts.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// ErrEmptyInput marks a blank line. No turn is recorded for it.
var ErrEmptyInput error = &InputError{Reason: "please enter a valid question"}

// ErrLineTooLong marks a line over the input limit. It is skipped whole.
var ErrLineTooLong error = &InputError{Reason: "input line is too long"}

var errEmptyStatement = errors.New("model returned empty SQL")

// TranslationError wraps a failure of the text-generation call that should
// have produced the statement.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	if e.Err == nil {
		return "translation failed"
	}
	return e.Err.Error()
}

func (e *TranslationError) Unwrap() error { return e.Err }

// ExplanationError wraps a failure of the explanation call. The rows of the
// turn are still shown.
type ExplanationError struct {
	Err error
}

func (e *ExplanationError) Error() string {
	if e.Err == nil {
		return "explanation failed"
	}
	return e.Err.Error()
}

func (e *ExplanationError) Unwrap() error { return e.Err }
