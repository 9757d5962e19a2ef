// internal/app/system/apperr/apperr.go

// Package apperr defines the error taxonomy the engines surface to the
// API layer.
//
// Four kinds cover everything the organizational engine can reject:
//
//   - Validation: malformed input. Surfaced before any store call.
//   - Authorization: the actor lacks rights. Surfaced before any store call.
//   - Conflict: state changed between arming and commit, or a commit was
//     attempted before the arming delay elapsed. The caller should
//     re-fetch state and let the operator restart the flow consciously;
//     blind retry is wrong for organizationally sensitive operations.
//   - Integrity: an atomic cascade could not complete and was rolled
//     back. It means "nothing changed", never "partially changed".
//
// Handlers map kinds to HTTP statuses with KindOf; engines construct
// errors with the Validationf/Authorizationf/Conflictf/Integrityf
// helpers and wrap store causes so errors.Is still reaches sentinels
// like mongo.ErrNoDocuments.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindConflict
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error is a classified error with an operator-facing message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf builds a validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Authorizationf builds an authorization error.
func Authorizationf(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Integrityf builds an integrity error wrapping the store cause.
func Integrityf(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindIntegrity, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the kind from err, or KindUnknown when err is not an
// apperr (or is nil).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsValidation reports whether err is classified as validation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsAuthorization reports whether err is classified as authorization.
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }

// IsConflict reports whether err is classified as conflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsIntegrity reports whether err is classified as integrity.
func IsIntegrity(err error) bool { return KindOf(err) == KindIntegrity }
