package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence error carrying the HTTP status it should surface as.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether e matches target. A base sentinel such as ErrNotFound
// matches every error with its status code; a variant such as ErrEmailTaken
// matches only errors carrying the same message, with or without a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code != e.Code {
		return false
	}
	return t.isBase() || t.Message == e.Message
}

func (e *Error) isBase() bool {
	return e == ErrNotFound || e == ErrAlreadyExists || e == ErrInvalidInput || e == ErrForbidden
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}

	ErrForbidden = &Error{
		Code:    http.StatusForbidden,
		Message: "forbidden",
	}
)

// Resource-specific variants used by the SQLite store.
var (
	ErrUserNotFound      = ErrNotFound.WithMessage("user not found")
	ErrSessionNotFound   = ErrNotFound.WithMessage("session not found")
	ErrChallengeNotFound = ErrNotFound.WithMessage("challenge not found")
	ErrPostNotFound      = ErrNotFound.WithMessage("post not found")
	ErrEmailTaken        = ErrAlreadyExists.WithMessage("email already registered")
	ErrUsernameTaken     = ErrAlreadyExists.WithMessage("Username is already taken.")
)
