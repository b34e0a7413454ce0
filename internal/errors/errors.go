// Package errors provides custom error types for the Trustlend API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
// Details carries machine-readable context (ceilings, shortfalls, tier
// names) that callers can render into guidance.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying structured detail fields.
func WithDetails(sentinel *AppError, message string, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Details:    details,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Financial engine errors.
var (
	ErrInvalidAmount    = &AppError{Code: "INVALID_AMOUNT", Message: "Principal must be positive and rate non-negative", StatusCode: http.StatusBadRequest}
	ErrInvalidTerm      = &AppError{Code: "INVALID_TERM", Message: "Installment count must be at least 1", StatusCode: http.StatusBadRequest}
	ErrNoSafeSuggestion = &AppError{Code: "NO_SAFE_SUGGESTION", Message: "Disposable income is too low for a safe repayment suggestion", StatusCode: http.StatusUnprocessableEntity}
)

// Eligibility & trust errors.
var (
	ErrAmountExceedsLimit      = &AppError{Code: "AMOUNT_EXCEEDS_LIMIT", Message: "Requested amount exceeds the current borrowing ceiling", StatusCode: http.StatusUnprocessableEntity}
	ErrTrustTransitionConflict = &AppError{Code: "TRUST_TRANSITION_CONFLICT", Message: "Trust record was modified concurrently, retry the operation", StatusCode: http.StatusConflict}
	ErrTrustRecordNotFound     = &AppError{Code: "TRUST_RECORD_NOT_FOUND", Message: "No trust record exists for this borrower and lender", StatusCode: http.StatusNotFound}
	ErrBorrowingBlocked        = &AppError{Code: "BORROWING_BLOCKED", Message: "Borrowing is blocked at this lender", StatusCode: http.StatusForbidden}
)

// Lender errors.
var (
	ErrBusinessNotFound   = &AppError{Code: "BUSINESS_NOT_FOUND", Message: "Lender business not found", StatusCode: http.StatusNotFound}
	ErrBusinessInactive   = &AppError{Code: "BUSINESS_INACTIVE", Message: "Lender business is not accepting loans", StatusCode: http.StatusUnprocessableEntity}
	ErrTierPolicyNotFound = &AppError{Code: "TIER_POLICY_NOT_FOUND", Message: "Tier policy not found", StatusCode: http.StatusNotFound}
)

// Loan errors.
var (
	ErrLoanNotFound        = &AppError{Code: "LOAN_NOT_FOUND", Message: "Loan not found", StatusCode: http.StatusNotFound}
	ErrLoanNotActive       = &AppError{Code: "LOAN_NOT_ACTIVE", Message: "Loan is not active", StatusCode: http.StatusBadRequest}
	ErrInstallmentNotFound = &AppError{Code: "INSTALLMENT_NOT_FOUND", Message: "Installment not found", StatusCode: http.StatusNotFound}
	ErrInstallmentPaid     = &AppError{Code: "INSTALLMENT_ALREADY_PAID", Message: "Installment is already paid", StatusCode: http.StatusConflict}
	ErrProfileNotFound     = &AppError{Code: "FINANCIAL_PROFILE_NOT_FOUND", Message: "Financial profile not found", StatusCode: http.StatusNotFound}
)
