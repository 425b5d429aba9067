package api

import (
	"errors"
	"fmt"
)

// Sentinel errors used across service and repository layers. Handlers map
// them onto the wire-level error codes below.
var ErrNotFound = errors.New("requested item not found")
var ErrConflict = errors.New("item already exists or conflict")
var ErrUnauthenticated = errors.New("authentication required or invalid credentials")
var ErrTokenExpired = errors.New("token has expired")

// ErrorCode is the closed enumeration of wire-level error codes.
type ErrorCode string

const (
	CodeValidationError    ErrorCode = "VALIDATION_ERROR"
	CodeAuthError          ErrorCode = "AUTH_ERROR"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

// ValidationDetails is the detail payload carried only by VALIDATION_ERROR.
type ValidationDetails struct {
	Expected string      `json:"expected"`
	Received interface{} `json:"received"`
}

// APIError is the error shape returned to clients. Details is populated
// only for validation errors, keyed by Code.
type APIError struct {
	Code    ErrorCode          `json:"code"`
	Message string             `json:"message"`
	Field   string             `json:"field,omitempty"`
	Details *ValidationDetails `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a field-level VALIDATION_ERROR.
func NewValidationError(field, message, expected string, received interface{}) *APIError {
	return &APIError{
		Code:    CodeValidationError,
		Message: message,
		Field:   field,
		Details: &ValidationDetails{Expected: expected, Received: received},
	}
}

// NewAuthError builds an auth-family error for the given code.
func NewAuthError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message}
}
