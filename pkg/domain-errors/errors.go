// Package domainerrors defines the code-carrying error type returned by
// services. Transport layers translate codes into HTTP statuses; callers
// branch on codes with Is instead of matching message strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks a malformed candidate or request payload
	// (missing requester, missing resource, empty approver).
	CodeValidation Code = "validation_failed"

	// CodeNotFound marks an unknown request id.
	CodeNotFound Code = "not_found"

	// CodeInvalidState marks a transition that is not legal from the
	// request's current state, e.g. approving an already decided request.
	CodeInvalidState Code = "invalid_state"

	// CodeCollaborator marks a failure in an external collaborator
	// (detector, notifier, provisioner).
	CodeCollaborator Code = "collaborator_failed"

	// CodeTimeout marks a provisioning call that exceeded its bounded wait.
	CodeTimeout Code = "provisioning_timeout"

	// CodeBadRequest marks a transport-level payload problem.
	CodeBadRequest Code = "bad_request"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error carries a Code alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message while keeping it reachable
// through errors.Unwrap.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status used in error envelopes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusConflict
	case CodeCollaborator:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
