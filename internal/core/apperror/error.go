// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes, one per error kind surfaced to collaborators.
const (
	// Infrastructure errors (5xx)
	CodeInternal    = "INTERNAL_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeOverpayment       = "OVERPAYMENT"
	CodeInvalidState      = "INVALID_STATE"
	CodeConfigMissing     = "CONFIG_MISSING"

	// Journal engine invariants (500, programmer errors)
	CodeUnbalancedJournal = "UNBALANCED_JOURNAL"
	CodeMissingAccount    = "MISSING_ACCOUNT"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeDuplicateAccountCode = "DUPLICATE_ACCOUNT_CODE"
	CodeAlreadyCancelled     = "ALREADY_CANCELLED"
	CodeDuplicate            = "DUPLICATE_ENTRY"
	CodeIdempotency          = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error.
// Quantities are passed as strings to keep decimal precision in the response.
func NewInsufficientStock(productID, warehouseID string, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id":   productID,
			"warehouse_id": warehouseID,
			"requested":    requested,
			"available":    available,
		},
	}
}

// NewOverpayment is returned when a payment exceeds the remaining amount due.
func NewOverpayment(amount, remaining string) *AppError {
	return &AppError{
		Code:       CodeOverpayment,
		Message:    "Payment exceeds the remaining amount due",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"amount": amount, "remaining": remaining},
	}
}

// NewDuplicateAccountCode is returned when an account code already exists in the enterprise.
func NewDuplicateAccountCode(code string, enterpriseID any) *AppError {
	return &AppError{
		Code:       CodeDuplicateAccountCode,
		Message:    fmt.Sprintf("account code %s already exists", code),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"code": code, "enterprise_id": enterpriseID},
	}
}

// NewUnbalancedJournal signals a journal whose debits and credits differ or are zero.
func NewUnbalancedJournal(debit, credit string) *AppError {
	return &AppError{
		Code:       CodeUnbalancedJournal,
		Message:    "Journal is not balanced",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"debit": debit, "credit": credit},
	}
}

// NewMissingAccount signals a journal line referencing an unknown account.
func NewMissingAccount(accountIDs []string) *AppError {
	return &AppError{
		Code:       CodeMissingAccount,
		Message:    "Journal references unknown accounts",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"account_ids": accountIDs},
	}
}

// NewAlreadyCancelled is returned when cancelling a cart that is already cancelled.
func NewAlreadyCancelled(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeAlreadyCancelled,
		Message:    fmt.Sprintf("%s is already cancelled", entity),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConfigMissing signals that no accounting configuration exists for a POS.
// Callers treat it as recoverable: the business write proceeds without postings.
func NewConfigMissing(posID any) *AppError {
	return &AppError{
		Code:       CodeConfigMissing,
		Message:    "Accounting configuration is missing for this point of sale",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"pos_id": posID},
	}
}

// NewInvalidState is returned when an operation is not allowed in the current status.
func NewInvalidState(entity string, status, operation string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("cannot %s a %s %s", operation, status, entity),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "status": status, "operation": operation},
	}
}

// NewPersistence wraps a store failure.
func NewPersistence(err error) *AppError {
	return &AppError{
		Code:       CodePersistence,
		Message:    "Persistence failure",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different user/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// WithSession tags an error leaving a failed unit of work with its session id.
// An AppError gets a session_id detail; any other error is wrapped.
func WithSession(err error, sessionID string) error {
	if err == nil || sessionID == "" {
		return err
	}
	if appErr, ok := AsAppError(err); ok {
		if _, set := appErr.Details["session_id"]; !set {
			appErr.WithDetail("session_id", sessionID)
		}
		return err
	}
	return fmt.Errorf("session %s: %w", sessionID, err)
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConfigMissing checks if error is CodeConfigMissing
func IsConfigMissing(err error) bool {
	return HasCode(err, CodeConfigMissing)
}
