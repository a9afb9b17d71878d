package transform

import (
	"errors"
	"net/http"
)

// Kind classifies a transform failure.
type Kind int

const (
	KindInternal Kind = iota
	KindMethod
	KindValidation
	KindRateLimited
	KindConfiguration
	KindUpstreamTransient
	KindUpstreamFatal
	KindNoImage
)

var (
	ErrMethodNotAllowed  = errors.New("method not allowed")
	ErrValidation        = errors.New("invalid image data")
	ErrRateLimited       = errors.New("rate limited")
	ErrConfiguration     = errors.New("server misconfigured")
	ErrUpstreamTransient = errors.New("upstream temporarily unavailable")
	ErrUpstreamFatal     = errors.New("upstream request failed")
	ErrNoImageGenerated  = errors.New("no image generated")
	ErrInternal          = errors.New("internal error")
)

var kindSentinels = map[Kind]error{
	KindInternal:          ErrInternal,
	KindMethod:            ErrMethodNotAllowed,
	KindValidation:        ErrValidation,
	KindRateLimited:       ErrRateLimited,
	KindConfiguration:     ErrConfiguration,
	KindUpstreamTransient: ErrUpstreamTransient,
	KindUpstreamFatal:     ErrUpstreamFatal,
	KindNoImage:           ErrNoImageGenerated,
}

// Error carries the client-facing message of a failed transform and the cause behind it.
// Message is safe to show to clients; Err is for logs and development diagnostics.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindMethod:
		return http.StatusMethodNotAllowed
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AsError converts any error into an *Error, treating unknown errors as internal.
func AsError(err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

func validationError(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}
