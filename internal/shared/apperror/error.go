// Package apperror holds the error type shared by every domain.
// Each domain declares its own sentinels in model/errors.go on top of it.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller. Handlers map it to an HTTP status.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindWrongRole  Kind = "WRONG_ROLE"
	KindWrongState Kind = "WRONG_STATE"
	KindConflict   Kind = "CONFLICT"
	KindClassifier Kind = "CLASSIFIER"
	KindInternal   Kind = "INTERNAL"
)

// Error is a coded domain error. Two errors with the same Code match under errors.Is,
// so a sentinel can be enriched with detail via WithDetail and still be recognised.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithDetail returns a copy carrying a more specific message.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
		Err:     e.Err,
	}
}

// Wrap returns a copy with err as the cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }
func NotFound(code, message string) *Error   { return New(KindNotFound, code, message) }
func WrongRole(code, message string) *Error  { return New(KindWrongRole, code, message) }
func WrongState(code, message string) *Error { return New(KindWrongState, code, message) }
func Conflict(code, message string) *Error   { return New(KindConflict, code, message) }

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in the chain.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryable reports whether the caller may retry the whole operation.
func IsRetryable(err error) bool {
	return KindOf(err) == KindConflict
}

// Shared codes used across domains.
var (
	ErrForbiddenRole  = WrongRole("FORBIDDEN_ROLE", "actor role is not allowed to perform this action")
	ErrSourceMismatch = WrongRole("SOURCE_MISMATCH", "actor is not assigned to this source")
	ErrConcurrent     = Conflict("CONCURRENT_CONFLICT", "concurrent modification, retry the operation")
	ErrDuplicate      = Conflict("DUPLICATE", "record already exists")
	ErrReference      = NotFound("REFERENCE_NOT_FOUND", "referenced record does not exist")
	ErrRecordNotFound = NotFound("RECORD_NOT_FOUND", "record not found")
)
