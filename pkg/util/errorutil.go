package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainError standardizes errors crossing the client and gateway boundary.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

// NewHTTPError describes a non-success upstream response. The message keeps
// the "<status>: <body>" shape callers match against.
func NewHTTPError(status int, body string) error {
	return &DomainError{
		Code:       codeForStatus(status),
		Message:    fmt.Sprintf("%d: %s", status, strings.TrimSpace(body)),
		HTTPStatus: status,
	}
}

// NewTransportError wraps a failure that never produced an HTTP response.
func NewTransportError(op string, err error) error {
	return &DomainError{
		Code:       "NETWORK_UNAVAILABLE",
		Message:    op + " failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewInvalidResponse reports a 2xx response the caller could not use.
func NewInvalidResponse(message string, err error) error {
	return &DomainError{
		Code:       "INVALID_RESPONSE",
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsStatus reports whether err is a DomainError carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.HTTPStatus == status
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status >= 500:
		return "UPSTREAM_ERROR"
	default:
		return "HTTP_ERROR"
	}
}
