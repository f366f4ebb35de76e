package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// #region kind
// Kind classifies an error by how callers are expected to react to it.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindGeneration   Kind = "generation_error"
	KindContentFetch Kind = "content_fetch_error"
	KindLogging      Kind = "logging_error"
)

// #endregion kind

// #region error
// Error is the typed error carried across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...), nil)
}

func Generation(message string, err error) *Error {
	return New(KindGeneration, message, err)
}

func ContentFetch(message string, err error) *Error {
	return New(KindContentFetch, message, err)
}

func Logging(message string, err error) *Error {
	return New(KindLogging, message, err)
}

// #endregion error

// #region inspect
// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the API layer returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGeneration, KindContentFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// #endregion inspect
