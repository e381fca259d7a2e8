package errors

import (
	"net/http"

	"otpgate/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types.
//
// Login failures and policy failures carry distinct business codes so they can
// be told apart in logs and metrics, while the transport keeps the
// user-visible message generic to avoid aiding enumeration.
var (
	// Phone-related errors
	ErrInvalidPhoneFormat = NewBaseError(
		http.StatusBadRequest,
		"INVALID_PHONE_FORMAT",
		"invalid mobile number",
		"",
	)

	// OTP protocol errors
	ErrRateLimited = NewBaseError(
		http.StatusTooManyRequests,
		"RATE_LIMITED",
		"too many OTP requests, try again later",
		"",
	)

	ErrChallengeNotFound = NewBaseError(
		http.StatusUnauthorized,
		"CHALLENGE_NOT_FOUND",
		"verification failed",
		"",
	)

	ErrOtpExpired = NewBaseError(
		http.StatusUnauthorized,
		"OTP_EXPIRED",
		"verification failed",
		"",
	)

	ErrTooManyAttempts = NewBaseError(
		http.StatusUnauthorized,
		"TOO_MANY_ATTEMPTS",
		"verification failed",
		"",
	)

	ErrInvalidOtp = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_OTP",
		"verification failed",
		"",
	)

	// Token-related errors
	ErrTempTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"TEMP_TOKEN_INVALID",
		"invalid or expired temp token",
		"",
	)

	ErrTokenExpired = NewBaseError(
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
		"token has expired",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"unauthorized",
		"",
	)

	// User-related errors
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"user not found",
		"",
	)

	ErrUserCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"USER_CREATION_FAILED",
		"failed to create user",
		"",
	)

	ErrUserUpdateFailed = NewBaseError(
		http.StatusInternalServerError,
		"USER_UPDATE_FAILED",
		"failed to update user",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	// General errors
	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"access denied",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// UnavailableError represents a storage or connectivity fault, implementing
// the AppError interface. Callers may retry with backoff; the service itself
// performs no automatic retry.
type UnavailableError struct {
	err     error
	details string
}

// NewUnavailableError creates a storage/connectivity error
func NewUnavailableError(err error, details string) AppError {
	return &UnavailableError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	return errors.Wrap(e.err, "storage unavailable").Error()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UnavailableError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *UnavailableError) HTTPCode() int {
	return http.StatusServiceUnavailable
}

// ErrorCode returns the business error code
func (e *UnavailableError) ErrorCode() string {
	return "UNAVAILABLE"
}

// Message returns the user-friendly error message
func (e *UnavailableError) Message() string {
	return "service temporarily unavailable"
}

// Details returns detailed error information
func (e *UnavailableError) Details() string {
	return e.details
}
