package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

// Handler processes every message of one type.
type Handler interface {
	MessageType() domain.MessageType
	ProcessMessage(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error)
}

// FailedMessageHandler is implemented by handlers that compensate when processing fails with
// a FailureEvent.
type FailedMessageHandler interface {
	ProcessFailedMessage(ctx context.Context, failure *customError.FailureEvent, msg *domain.Message) error
}

// Registry maps message types to their handler. It is built once at startup.
type Registry struct {
	handlers map[domain.MessageType]Handler
}

// NewRegistry validates and indexes the handlers. Registering nothing, registering a type twice
// or registering a type outside the known set is an error.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	if len(handlers) == 0 {
		return nil, errors.New("at least one message handler must be registered")
	}

	registry := &Registry{handlers: make(map[domain.MessageType]Handler, len(handlers))}
	for _, handler := range handlers {
		if handler == nil {
			return nil, errors.New("message handler must not be nil")
		}
		messageType := handler.MessageType()
		if !messageType.IsValid() {
			return nil, fmt.Errorf("handler registered for unknown message type %q", messageType)
		}
		if _, exists := registry.handlers[messageType]; exists {
			return nil, fmt.Errorf("more than one handler registered for message type %s", messageType)
		}
		registry.handlers[messageType] = handler
	}
	return registry, nil
}

// Handler returns the handler for a message type.
func (r *Registry) Handler(messageType domain.MessageType) (Handler, bool) {
	handler, ok := r.handlers[messageType]
	return handler, ok
}

// Missing lists the known message types nobody handles.
func (r *Registry) Missing() []domain.MessageType {
	var missing []domain.MessageType
	for _, messageType := range domain.MessageTypes {
		if _, ok := r.handlers[messageType]; !ok {
			missing = append(missing, messageType)
		}
	}
	return missing
}
