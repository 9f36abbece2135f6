// Package errors provides standardized error handling for BPMN workflow integration.
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
	// Business errors, surfaced to the process as BPMN errors.
	ErrCodeInputParsingFailed         ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeVendorValidationFailed     ErrorCode = "VENDOR_VALIDATION_FAILED"
	ErrCodeInvalidQualificationScores ErrorCode = "INVALID_QUALIFICATION_SCORES"
	ErrCodeDraftNotFound              ErrorCode = "DRAFT_NOT_FOUND"
	ErrCodeUnsupportedDraftAction     ErrorCode = "UNSUPPORTED_DRAFT_ACTION"
	ErrCodeNotificationRejected       ErrorCode = "NOTIFICATION_REJECTED"

	// Technical errors, retried before the incident is raised.
	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed          ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed          ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout                  ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDraftStoreFailed              ErrorCode = "DRAFT_STORE_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchIndexFailed             ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeNotificationSendFailed        ErrorCode = "NOTIFICATION_SEND_FAILED"
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

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputParsingFailedError creates a non-retryable error for malformed job variables.
func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

// NewVendorValidationFailedError carries the per-field validation messages
// as the validationErrors variable.
func NewVendorValidationFailedError(errs map[string][]string, issueCount int) *StandardError {
	e := newError(ErrCodeVendorValidationFailed, "Vendor submission failed validation",
		fmt.Sprintf("%d issue(s) across %d field(s)", issueCount, len(errs)), false)
	return e.WithMetadata("validationErrors", errs)
}

// NewInvalidQualificationScoresError creates a non-retryable score range error.
func NewInvalidQualificationScoresError(details string) *StandardError {
	return newError(ErrCodeInvalidQualificationScores, "Qualification scores out of range", details, false)
}

// NewDraftNotFoundError creates a non-retryable missing draft error.
func NewDraftNotFoundError(draftID string) *StandardError {
	return newError(ErrCodeDraftNotFound, "Vendor draft not found", fmt.Sprintf("draftId: %s", draftID), false)
}

// NewUnsupportedDraftActionError creates a non-retryable draft action error.
func NewUnsupportedDraftActionError(action string) *StandardError {
	return newError(ErrCodeUnsupportedDraftAction, "Unsupported draft action", fmt.Sprintf("action: %s", action), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

// NewDraftStoreFailedError creates a retryable draft store error.
func NewDraftStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeDraftStoreFailed, "Draft store operation failed",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true)
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

// NewSearchIndexFailedError creates a retryable indexing error.
func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Elasticsearch indexing error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

// NewNotificationRejectedError reports a send the provider refused outright.
// Repeating it cannot succeed, so it is not retried.
func NewNotificationRejectedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationRejected, "Notification rejected by provider",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), false)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the qualification process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParsingFailed:            "INPUT_PARSING_FAILED",
	ErrCodeVendorValidationFailed:        "VENDOR_VALIDATION_FAILED",
	ErrCodeInvalidQualificationScores:    "INVALID_QUALIFICATION_SCORES",
	ErrCodeDraftNotFound:                 "DRAFT_NOT_FOUND",
	ErrCodeUnsupportedDraftAction:        "UNSUPPORTED_DRAFT_ACTION",
	ErrCodeNotificationRejected:          "NOTIFICATION_REJECTED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDraftStoreFailed:              "DRAFT_STORE_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchIndexFailed:             "SEARCH_INDEX_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDraftStoreFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeQueryTimeout, "TIMEOUT_ERROR", "EXTERNAL_SERVICE_ERROR":
		return 2
	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Metadata entries become error variables.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsKnownBPMNCode reports whether code is an error code a worker may throw.
func IsKnownBPMNCode(code string) bool {
	for _, c := range BPMNErrorMapping {
		if c == code {
			return true
		}
	}
	switch code {
	case "BUSINESS_RULE_VIOLATION", "EXTERNAL_SERVICE_ERROR", "TIMEOUT_ERROR", "INTERNAL_ERROR":
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DRAFT"):
		return "DRAFT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
