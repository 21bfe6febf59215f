package domain

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the category of a user-visible notice.
type ErrorCode string

const (
	ErrorCodeStartup              ErrorCode = "startup"
	ErrorCodeCollaboratorRejected ErrorCode = "collaborator_rejected"
	ErrorCodeRateLimited          ErrorCode = "rate_limited"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeTransport            ErrorCode = "transport"
	ErrorCodeDeviceDenied         ErrorCode = "device_denied"
	ErrorCodeEmptyInput           ErrorCode = "empty_input"
	ErrorCodeExport               ErrorCode = "export"
	ErrorCodePlayback             ErrorCode = "playback"
)

// CollaboratorError is returned when a remote collaborator answered with an error payload
// or a non-success status.
type CollaboratorError struct {
	Collaborator string
	Status       int
	Message      string
}

func (e *CollaboratorError) Error() string {
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "request failed"
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Collaborator, message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Collaborator, message)
}

// RateLimited reports the rate-limit sub-case.
func (e *CollaboratorError) RateLimited() bool {
	return e.Status == 429 || strings.Contains(e.Message, "Rate limit exceeded") || strings.Contains(e.Message, "429")
}

// Unauthorized reports the auth-failure sub-case.
func (e *CollaboratorError) Unauthorized() bool {
	return e.Status == 401 || strings.Contains(e.Message, "Unauthorized") || strings.Contains(e.Message, "401")
}
