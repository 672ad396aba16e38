// Package errors defines the admin control plane's error taxonomy and its
// mapping onto HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an admin operation failure.
type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeFileExists        Code = "FILE_EXISTS"
	CodeNoClusterMembers  Code = "NO_CLUSTER_MEMBERS"
	CodeRemoteUnavailable Code = "REMOTE_UNAVAILABLE"
	CodeAmbiguous         Code = "AMBIGUOUS_RECONCILIATION"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// AdminError is a classified error with an optional cause.
type AdminError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AdminError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AdminError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code onto an HTTP status.
func (e *AdminError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeFileExists:
		return http.StatusPreconditionFailed
	case CodeNoClusterMembers:
		return http.StatusServiceUnavailable
	case CodeRemoteUnavailable:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeAmbiguous, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a missing or malformed request field. Validation
// failures are surfaced before any remote work begins.
func Validation(format string, args ...interface{}) *AdminError {
	return &AdminError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent target entity.
func NotFound(what string) *AdminError {
	return &AdminError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", what)}
}

// Conflict reports an operation rejected by existing state.
func Conflict(message string) *AdminError {
	return &AdminError{Code: CodeConflict, Message: message}
}

// FileExists reports an undelete target that already exists.
func FileExists(name string) *AdminError {
	return &AdminError{Code: CodeFileExists, Message: fmt.Sprintf("database %s already exists", name)}
}

// NoClusterMembers reports that routing cannot proceed because the
// membership view is empty.
func NoClusterMembers() *AdminError {
	return &AdminError{Code: CodeNoClusterMembers, Message: "no cluster members available"}
}

// RemoteUnavailable reports an unreachable or timed-out member call.
func RemoteUnavailable(member string, cause error) *AdminError {
	return &AdminError{
		Code:    CodeRemoteUnavailable,
		Message: fmt.Sprintf("member %s unavailable", member),
		Cause:   cause,
	}
}

// Ambiguous reports a broadcast reconciliation that found no dominant
// success and fell back to an arbitrary error reply.
func Ambiguous(message string) *AdminError {
	return &AdminError{Code: CodeAmbiguous, Message: message}
}

// Internal wraps an unclassified failure.
func Internal(message string, cause error) *AdminError {
	return &AdminError{Code: CodeInternal, Message: message, Cause: cause}
}

// CodeOf extracts the code from an error chain, defaulting to internal.
func CodeOf(err error) Code {
	var ae *AdminError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatusOf maps any error onto an HTTP status.
func HTTPStatusOf(err error) int {
	var ae *AdminError
	if errors.As(err, &ae) {
		return ae.HTTPStatus()
	}
	return http.StatusInternalServerError
}
