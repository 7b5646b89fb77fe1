package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error the ledger core returns to its callers
type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindForbidden      ErrorKind = "FORBIDDEN"
	KindConflict       ErrorKind = "CONFLICT"
	KindStorageFailure ErrorKind = "STORAGE_FAILURE"
)

// Error is the tagged error carried across the core boundary.
// Message is always safe to show to the caller; Err keeps the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is matching on kind alone
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrStorageFailure = &Error{Kind: KindStorageFailure}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// StorageFailure wraps a storage-layer error. The whole operation is safe to retry.
func StorageFailure(err error) error {
	return &Error{Kind: KindStorageFailure, Message: "storage operation failed, retry the request", Err: err}
}

// KindOf returns the taxonomy kind of err, or "" for untagged errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AsCoreError leaves tagged errors alone and tags everything else as a storage failure.
// Domain errors that implement Is against a sentinel are re-tagged with that sentinel's kind.
func AsCoreError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	for _, sentinel := range []*Error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict} {
		if errors.Is(err, sentinel) {
			return &Error{Kind: sentinel.Kind, Message: err.Error(), Err: err}
		}
	}
	return StorageFailure(err)
}
