// Package errors provides standardized error handling for the profile core.
//
// Two failure kinds exist: per-field validation errors, which are
// accumulated and returned to the caller as data, and fatal
// infrastructure errors, which abort the operation. Only the latter are
// represented as Go errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseQueryFailed    ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseSaveFailed     ErrorCode = "DATABASE_SAVE_FAILED"
	ErrCodeUniquenessCheckFailed  ErrorCode = "UNIQUENESS_CHECK_FAILED"
	ErrCodeInvitationCreateFailed ErrorCode = "INVITATION_CREATE_FAILED"
	ErrCodeInvitationNotFound     ErrorCode = "INVITATION_NOT_FOUND"
	ErrCodeCatalogLookupFailed    ErrorCode = "CATALOG_LOOKUP_FAILED"
	ErrCodeAnalyticsPublishFailed ErrorCode = "ANALYTICS_PUBLISH_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExportIndexFailed      ErrorCode = "EXPORT_INDEX_FAILED"
	ErrCodeProfileNotFound        ErrorCode = "PROFILE_NOT_FOUND"
)

// StandardError represents a structured fatal error from a collaborator.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// New creates a StandardError wrapping cause. Cause may be nil.
func New(code ErrorCode, message string, retryable bool, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewDatabaseQueryError creates a retryable database read failure.
func NewDatabaseQueryError(cause error) *StandardError {
	return New(ErrCodeDatabaseQueryFailed, "database query failed", true, cause)
}

// NewDatabaseSaveError creates a retryable database write failure.
func NewDatabaseSaveError(cause error) *StandardError {
	return New(ErrCodeDatabaseSaveFailed, "database save failed", true, cause)
}

// NewUniquenessCheckError wraps an I/O failure during the external-id
// uniqueness lookup. This is distinct from the uniqueness violation
// itself, which is a plain validation error.
func NewUniquenessCheckError(cause error) *StandardError {
	return New(ErrCodeUniquenessCheckFailed, "external id uniqueness check failed", true, cause)
}

// NewInvitationCreateError creates a retryable invitation-service failure.
func NewInvitationCreateError(cause error) *StandardError {
	return New(ErrCodeInvitationCreateFailed, "invitation creation failed", true, cause)
}

// NewInvitationNotFoundError reports an unknown invitation code.
func NewInvitationNotFoundError(code string) *StandardError {
	return New(ErrCodeInvitationNotFound, fmt.Sprintf("no invitation with code %s", code), false, nil)
}

// NewCatalogLookupError creates a retryable poll-options catalog failure.
func NewCatalogLookupError(cause error) *StandardError {
	return New(ErrCodeCatalogLookupFailed, "poll options catalog lookup failed", true, cause)
}

// NewAnalyticsPublishError creates a retryable analytics transport failure.
func NewAnalyticsPublishError(cause error) *StandardError {
	return New(ErrCodeAnalyticsPublishFailed, "analytics event publish failed", true, cause)
}

// NewNotificationSendError creates a retryable notification failure.
func NewNotificationSendError(cause error) *StandardError {
	return New(ErrCodeNotificationSendFailed, "notification send failed", true, cause)
}

// NewExportIndexError creates a retryable export indexing failure.
func NewExportIndexError(cause error) *StandardError {
	return New(ErrCodeExportIndexFailed, "export snapshot indexing failed", true, cause)
}

// NewProfileNotFoundError reports a lookup miss for a profile id.
func NewProfileNotFoundError(id string) *StandardError {
	return New(ErrCodeProfileNotFound, fmt.Sprintf("no profile with id %s", id), false, nil)
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
