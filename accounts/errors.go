package accounts

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes reported by the Account Service
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUserAlreadyExists = "USER_ALREADY_EXISTS"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeSystemError       = "SYSTEM_ERROR"
)

// Client side errors
var (
	ErrTransport       = errors.New("account service unreachable")
	ErrInvalidResponse = errors.New("invalid account service response")
)

// ErrorResponse is the structured error body of the Account Service.
// Message may also arrive nested as data.message or as a bare error string.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Data    *struct {
		Message string `json:"message"`
	} `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// text picks the human readable message, if any
func (r ErrorResponse) text() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Data != nil && r.Data.Message != "":
		return r.Data.Message
	default:
		return r.Error
	}
}

// ServiceError is a non-2xx reply from the Account Service
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Details    interface{}
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("account service: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("account service: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MessageOf returns the service provided message carried by err, if any
func MessageOf(err error) (string, bool) {
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}

// IsConflict reports whether the account already exists
func IsConflict(err error) bool {
	var se *ServiceError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusConflict || se.Code == CodeUserAlreadyExists
}
