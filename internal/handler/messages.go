package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/pkg/response"
)

// DispatchTrigger runs one dispatch under the message processor lock.
type DispatchTrigger interface {
	RunContext(ctx context.Context) error
}

// PendingCounter reports how many messages wait per type.
type PendingCounter interface {
	PendingCounts(ctx context.Context) (map[domain.MessageType]int, error)
}

type MessagesHandler struct {
	trigger DispatchTrigger
	pending PendingCounter
	logger  *zap.Logger
}

func NewMessagesHandler(trigger DispatchTrigger, pending PendingCounter, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{
		trigger: trigger,
		pending: pending,
		logger:  logger.Named("messages"),
	}
}

// Process runs the dispatcher once, outside the cron schedule. The run outlives the request so
// a disconnecting caller cannot cut a batch short.
func (h *MessagesHandler) Process(w http.ResponseWriter, r *http.Request) {
	if err := h.trigger.RunContext(context.WithoutCancel(r.Context())); err != nil {
		h.logger.Error("manual dispatch failed", zap.Error(err))
		response.InternalServerError(w, "Message processing failed", err)
		return
	}
	response.Accepted(w, map[string]string{"status": "processed"})
}

// Pending returns the number of NEW and ERROR messages per type. Every known type is listed.
func (h *MessagesHandler) Pending(w http.ResponseWriter, r *http.Request) {
	counts, err := h.pending.PendingCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to count pending messages", zap.Error(err))
		response.InternalServerError(w, "Failed to count pending messages", err)
		return
	}

	result := make(map[domain.MessageType]int, len(domain.MessageTypes))
	for _, messageType := range domain.MessageTypes {
		result[messageType] = counts[messageType]
	}
	response.Success(w, result)
}
