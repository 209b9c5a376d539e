package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrUnauthorized matches any 401 response
	ErrUnauthorized = errors.New("session expired")
	// ErrConflict matches any 409 response
	ErrConflict = errors.New("conflict")
	// ErrNotFound matches any 404 response
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned while the circuit breaker is open
	ErrUnavailable = errors.New("janitor API temporarily unavailable")
)

// Error is a non-2xx response from the Media Janitor server
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string // server-supplied message, empty when none was sent
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.Status)
}

// Is lets callers match status classes with errors.Is
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsClientError reports a 4xx status
func (e *Error) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// ServerMessage extracts the server's message from an error chain, if any
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// StatusOf returns the HTTP status carried by an error chain, or 0
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// parseErrorMessage pulls a message from the common error body shapes:
// {"detail": "..."}, {"message": "..."} or {"error": "..."}
func parseErrorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil && detail != "" {
			return strings.TrimSpace(detail)
		}
	}
	if payload.Message != "" {
		return strings.TrimSpace(payload.Message)
	}
	return strings.TrimSpace(payload.Error)
}
