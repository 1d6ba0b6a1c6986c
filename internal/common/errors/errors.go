// Package errors provides standardized error handling for the dining
// concierge pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Dialog-side errors
	ErrCodeSlotInvalid           ErrorCode = "SLOT_INVALID"
	ErrCodePreferenceStoreFailed ErrorCode = "PREFERENCE_STORE_FAILED"
	ErrCodeQueueSubmissionFailed ErrorCode = "QUEUE_SUBMISSION_FAILED"

	// Fulfillment-side errors
	ErrCodePayloadInvalid         ErrorCode = "PAYLOAD_INVALID"
	ErrCodeSearchUnavailable      ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeCatalogUnavailable     ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeInsufficientCandidates ErrorCode = "INSUFFICIENT_CANDIDATES"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeQueueReceiveFailed     ErrorCode = "QUEUE_RECEIVE_FAILED"
	ErrCodeQueueDeleteFailed      ErrorCode = "QUEUE_DELETE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewPreferenceStoreFailedError creates a retryable preference store error.
// Callers in the dialog path collapse it to "no preference found".
func NewPreferenceStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreferenceStoreFailed,
		Message:   "Preference store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueueSubmissionFailedError creates a retryable queue submission error.
func NewQueueSubmissionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueueSubmissionFailed,
		Message:   "Dining request could not be enqueued",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadInvalidError creates a non-retryable payload validation error.
func NewPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadInvalid,
		Message:   "Queue payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchUnavailableError creates a retryable search error.
func NewSearchUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "Search index query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogUnavailableError creates a retryable catalog error.
func NewCatalogUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Catalog batch-get failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsufficientCandidatesError creates a retryable error for a candidate
// pool that is too small. Retryable because the pool may grow; the queue
// message stays unacknowledged.
func NewInsufficientCandidatesError(cuisine string, got int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientCandidates,
		Message:   "Not enough restaurant candidates",
		Details:   fmt.Sprintf("cuisine: %s, got: %d", cuisine, got),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError is the generic constructor for unclassified
// upstream failures.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended redelivery count per error code.
// Fulfillment errors lean on SQS redelivery, so the counts here only inform
// logging and alerting.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePreferenceStoreFailed,
		ErrCodeQueueSubmissionFailed,
		ErrCodeSearchUnavailable,
		ErrCodeCatalogUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeQueueReceiveFailed,
		ErrCodeQueueDeleteFailed:
		return 3

	case ErrCodeInsufficientCandidates:
		return 2

	default:
		return 0 // Validation errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SLOT") || strings.Contains(codeStr, "PAYLOAD"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PREFERENCE"):
		return "PREFERENCES"
	case strings.Contains(codeStr, "QUEUE"):
		return "QUEUE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "CANDIDATES"):
		return "SEARCH"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
