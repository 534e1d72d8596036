package message

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/repository"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// QueueSender enqueues messages in the durable message store. Called with a transactional
// context, the message is committed together with the caller's other writes.
type QueueSender struct {
	repo  repository.MessageRepository
	clock utils.Clock
}

func NewQueueSender(repo repository.MessageRepository, clock utils.Clock) *QueueSender {
	return &QueueSender{repo: repo, clock: clock}
}

// SendMessage stores a NEW message of the given type that is due immediately.
func (s *QueueSender) SendMessage(ctx context.Context, messageType domain.MessageType, payload any) error {
	if !messageType.IsValid() {
		return fmt.Errorf("unknown message type %q", messageType)
	}

	body, err := EncodePayload(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", messageType, err)
	}

	now := s.clock()
	return s.repo.Create(ctx, &domain.Message{
		ID:               uuid.New(),
		MessageType:      messageType,
		MessagePayload:   body,
		MessageTimestamp: now,
		Status:           domain.MessageStatusNew,
		ProcessAfter:     now,
	})
}
