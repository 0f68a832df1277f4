package domain

import "errors"

var (
	// ErrProgressionNotFound is returned when no record exists for an identity.
	ErrProgressionNotFound = errors.New("progression not found")
	// ErrManifestNotFound indicates the mission's static configuration is missing.
	ErrManifestNotFound = errors.New("mission manifest not found")
	// ErrQuestionNotFound indicates a submitted question ID was never issued.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionAnswered indicates a question ID already has an evaluated record.
	ErrQuestionAnswered = errors.New("question already answered")
	// ErrNoAnswerData indicates a submission missing required fields.
	ErrNoAnswerData = errors.New("no answer data received")
	// ErrQuizExhausted indicates selection was attempted with no questions left.
	ErrQuizExhausted = errors.New("no questions left")
)

// RequestError wraps a request-level fault so transports can render it as an
// error document instead of a fatal condition.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// AsRequestError reports whether err is a request-level fault.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
