package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrClaimNotFound        = errors.New("claim not found")
	ErrPaymentCycleNotFound = errors.New("payment cycle not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNoMessageHandler     = errors.New("no message handler registered")
	ErrInvariantViolation   = errors.New("invariant violation")
	ErrLockNotAcquired      = errors.New("lock not acquired")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeClaimNotFound        = "CLAIM_NOT_FOUND"
	ErrCodePaymentCycleNotFound = "PAYMENT_CYCLE_NOT_FOUND"
	ErrCodeMessageNotFound      = "MESSAGE_NOT_FOUND"
	ErrCodeNoMessageHandler     = "NO_MESSAGE_HANDLER"
	ErrCodeInvariantViolation   = "INVARIANT_VIOLATION"
	ErrCodeInvalidPayload       = "INVALID_MESSAGE_PAYLOAD"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeLockError            = "LOCK_ERROR"
	ErrCodeDownstreamError      = "DOWNSTREAM_ERROR"
)

func WrapClaimNotFound(claimID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClaimNotFound,
		fmt.Sprintf("Claim with ID %s not found", claimID),
		ErrClaimNotFound,
	)
}

func WrapPaymentCycleNotFound(paymentCycleID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentCycleNotFound,
		fmt.Sprintf("Payment cycle with ID %s not found", paymentCycleID),
		ErrPaymentCycleNotFound,
	)
}

func WrapMessageNotFound(messageID string) *BusinessError {
	return NewBusinessError(
		ErrCodeMessageNotFound,
		fmt.Sprintf("Message with ID %s not found", messageID),
		ErrMessageNotFound,
	)
}

// NewConfigurationFault is raised when a batch holds messages of a type nobody handles.
func NewConfigurationFault(messageType string, messageCount int) *BusinessError {
	return NewBusinessError(
		ErrCodeNoMessageHandler,
		fmt.Sprintf("No message type handler registered for message type %s, there are %d message(s) in the queue", messageType, messageCount),
		ErrNoMessageHandler,
	)
}

// NewInvariantViolation marks a programming error. Messages failing with it are not retried.
func NewInvariantViolation(format string, args ...any) *BusinessError {
	return NewBusinessError(
		ErrCodeInvariantViolation,
		fmt.Sprintf(format, args...),
		ErrInvariantViolation,
	)
}

// IsInvariantViolation reports whether err (or anything it wraps) is an invariant violation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsConfigurationFault reports whether err is a missing-handler configuration fault.
func IsConfigurationFault(err error) bool {
	return errors.Is(err, ErrNoMessageHandler)
}

// WrapInvalidPayload reports a payload that can never be processed. It counts as an
// invariant violation so the message is not retried.
func WrapInvalidPayload(messageType string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPayload,
		fmt.Sprintf("Invalid payload for message type %s", messageType),
		fmt.Errorf("%w: %w", ErrInvariantViolation, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapLockError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLockError,
		"lock operation failed",
		err,
	)
}

func WrapDownstreamError(service string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDownstreamError,
		fmt.Sprintf("call to %s failed", service),
		err,
	)
}
