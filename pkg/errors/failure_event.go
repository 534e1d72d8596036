package errors

import (
	"errors"
	"fmt"
	"time"
)

// Failure event types raised by message handlers.
const (
	FailureEventPaymentFailed = "PAYMENT_FAILED"
)

// FailureEvent is a named business failure surfaced by a message handler. The dispatcher
// audits it and gives the handler a chance to compensate before the message is retried.
type FailureEvent struct {
	EventType string
	Message   string
	Timestamp time.Time
	Metadata  map[string]any
	Err       error
}

func (e *FailureEvent) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.EventType, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.EventType, e.Message)
}

func (e *FailureEvent) Unwrap() error {
	return e.Err
}

// NewFailureEvent creates a failure event stamped with the current time.
func NewFailureEvent(eventType, message string, metadata map[string]any, err error) *FailureEvent {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &FailureEvent{
		EventType: eventType,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
		Err:       err,
	}
}

// AsFailureEvent extracts a FailureEvent from err's chain.
func AsFailureEvent(err error) (*FailureEvent, bool) {
	var event *FailureEvent
	if errors.As(err, &event) {
		return event, true
	}
	return nil, false
}
