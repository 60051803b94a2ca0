package relay

import (
	"errors"
	"net/http"
	"strings"
)

// Error is a pipeline failure that already knows which HTTP status it
// maps to. Messages are surfaced verbatim to the caller.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

var (
	ErrInvalidToken     = NewError(http.StatusForbidden, "Invalid token")
	ErrInvalidSignature = NewError(http.StatusForbidden, "Invalid signature")
	ErrNoServerToken    = NewError(http.StatusInternalServerError, "Server token is not configured")
)

// MissingParams reports absent request fields, enumerated in the order
// they were checked.
func MissingParams(fields ...string) *Error {
	return NewError(http.StatusBadRequest,
		"Missing required parameters: "+strings.Join(fields, ", "))
}

// MissingConfig reports an incomplete resolved upstream configuration.
func MissingConfig(fields ...string) *Error {
	return NewError(http.StatusInternalServerError,
		"Missing required configuration: "+strings.Join(fields, ", "))
}

// StatusOf maps any error to the HTTP status it should produce.
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return http.StatusInternalServerError
}
