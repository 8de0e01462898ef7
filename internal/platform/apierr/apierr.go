package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers. Each one is a user-correctable
// condition; anything else is reported as internal_error.
const (
	CodeTypeNotFound        = "type_not_found"
	CodeStepNotFound        = "step_not_found"
	CodeInvalidTransition   = "invalid_transition"
	CodeStepIncomplete      = "step_incomplete"
	CodeDuplicateMapping    = "duplicate_mapping"
	CodeUnsupportedFileType = "unsupported_file_type"
	CodeParseFailure        = "parse_failure"
	CodeDuplicatePeriod     = "duplicate_period"
	CodeMissingPrerequisite = "missing_prerequisite"
	CodeMissingArgument     = "missing_argument"
	CodeInvalidArgument     = "invalid_argument"
	CodeAccessDenied        = "access_denied"
	CodeNotFound            = "not_found"
	CodeInternal            = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}

func Conflict(code string, err error) *Error {
	return New(http.StatusConflict, code, err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, CodeAccessDenied, err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// From returns err as an *Error, wrapping unexpected errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
