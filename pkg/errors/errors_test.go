package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvariantViolation(t *testing.T) {
	err := NewInvariantViolation("payment cycle %s belongs to claim %s", "c1", "claim-1")

	assert.True(t, IsInvariantViolation(err))
	assert.True(t, IsInvariantViolation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsInvariantViolation(errors.New("boom")))
	assert.Contains(t, err.Error(), "INVARIANT_VIOLATION")
	assert.Contains(t, err.Error(), "payment cycle c1 belongs to claim claim-1")
}

func TestConfigurationFault(t *testing.T) {
	err := NewConfigurationFault("MAKE_PAYMENT", 3)

	assert.True(t, IsConfigurationFault(err))
	assert.False(t, IsInvariantViolation(err))
	assert.Contains(t, err.Error(), "there are 3 message(s) in the queue")
}

func TestAsFailureEvent(t *testing.T) {
	cause := errors.New("card declined")
	event := NewFailureEvent(FailureEventPaymentFailed, "payment rejected", map[string]any{"claimId": "abc"}, cause)

	found, ok := AsFailureEvent(fmt.Errorf("handler: %w", event))
	assert.True(t, ok)
	assert.Equal(t, FailureEventPaymentFailed, found.EventType)
	assert.Equal(t, "abc", found.Metadata["claimId"])
	assert.ErrorIs(t, found, cause)
	assert.False(t, found.Timestamp.IsZero())

	_, ok = AsFailureEvent(cause)
	assert.False(t, ok)
}

func TestBusinessErrorUnwrap(t *testing.T) {
	err := WrapClaimNotFound("123")

	assert.ErrorIs(t, err, ErrClaimNotFound)
	assert.Equal(t, ErrCodeClaimNotFound, err.Code)
	assert.Equal(t, "CLAIM_NOT_FOUND: Claim with ID 123 not found (claim not found)", err.Error())
}

func TestWrapInvalidPayload(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := WrapInvalidPayload("MAKE_PAYMENT", cause)

	assert.True(t, IsInvariantViolation(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeInvalidPayload, err.Code)
}
