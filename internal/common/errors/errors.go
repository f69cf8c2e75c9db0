// Package errors provides standardized error handling for the loan desk.
package errors

import (
	stderrors "errors"
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
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeRecordParseFailed      ErrorCode = "RECORD_PARSE_FAILED"
	ErrCodeStoreIOFailed          ErrorCode = "STORE_IO_FAILED"
	ErrCodeDocumentCopyFailed     ErrorCode = "DOCUMENT_COPY_FAILED"
	ErrCodeApplicationNotFound    ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeStoreLocked            ErrorCode = "STORE_LOCKED"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCatalogLoadFailed      ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable validation error.
func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Validation failed", details, false, nil)
}

// NewRecordParseFailedError reports a record line that could not be decoded.
func NewRecordParseFailedError(line int, err error) *StandardError {
	return newError(ErrCodeRecordParseFailed, "Record could not be parsed",
		fmt.Sprintf("line: %d, error: %v", line, err), false, err)
}

// NewStoreIOFailedError creates a retryable store I/O error.
func NewStoreIOFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeStoreIOFailed, "Record store I/O failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewDocumentCopyFailedError reports a single document that could not be copied.
func NewDocumentCopyFailedError(src string, err error) *StandardError {
	return newError(ErrCodeDocumentCopyFailed, "Document copy failed",
		fmt.Sprintf("source: %s, error: %v", src, err), true, err)
}

// NewApplicationNotFoundError creates a non-retryable not-found error.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false, nil)
}

// NewStoreLockedError reports that another process holds the store lock.
func NewStoreLockedError(lockPath string, err error) *StandardError {
	return newError(ErrCodeStoreLocked, "Record store is locked by another process",
		fmt.Sprintf("lockFile: %s", lockPath), true, err)
}

// NewInvalidTransitionError rejects a status change the workflow does not allow.
func NewInvalidTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Status transition not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), false, nil)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %v", notificationType, err), true, err)
}

// NewCatalogLoadFailedError reports an unreadable catalog table.
func NewCatalogLoadFailedError(path string, err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "Catalog could not be loaded",
		fmt.Sprintf("path: %s, error: %v", path, err), false, err)
}

// NewConfigInvalidError reports a configuration value that failed validation.
func NewConfigInvalidError(details string) *StandardError {
	return newError(ErrCodeConfigInvalid, "Invalid configuration", details, false, nil)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeStoreIOFailed,
		ErrCodeStoreLocked,
		ErrCodeDocumentCopyFailed,
		ErrCodeNotificationSendFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "TRANSITION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PARSE"):
		return "FORMAT"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "COPY"):
		return "IO"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CONFIG") || strings.Contains(codeStr, "CATALOG"):
		return "CONFIGURATION"
	default:
		return "OTHER"
	}
}
