package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/client"
	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/message"
	"github.com/segyhp/claimant-engine/internal/repository"
)

// EmailSender delivers templated emails.
type EmailSender interface {
	SendEmail(ctx context.Context, req client.EmailRequest) error
}

// SendEmailHandler processes SEND_EMAIL messages for the claimant of the claim.
type SendEmailHandler struct {
	claimRepo repository.ClaimRepository
	email     EmailSender
	logger    *zap.Logger
}

func NewSendEmailHandler(claimRepo repository.ClaimRepository, email EmailSender, logger *zap.Logger) *SendEmailHandler {
	return &SendEmailHandler{
		claimRepo: claimRepo,
		email:     email,
		logger:    logger.Named("send_email"),
	}
}

func (h *SendEmailHandler) MessageType() domain.MessageType {
	return domain.MessageTypeSendEmail
}

func (h *SendEmailHandler) ProcessMessage(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error) {
	payload, err := message.DecodePayload[domain.SendEmailMessagePayload](msg)
	if err != nil {
		return domain.MessageStatusFailed, err
	}

	claim, err := h.claimRepo.FindByID(ctx, payload.ClaimID)
	if err != nil {
		return domain.MessageStatusError, err
	}

	if claim.Claimant.EmailAddress == "" {
		h.logger.Info("claimant has no email address, nothing to send",
			zap.String("claim_id", claim.ID.String()),
			zap.String("email_type", string(payload.EmailType)))
		return domain.MessageStatusCompleted, nil
	}

	err = h.email.SendEmail(ctx, client.EmailRequest{
		To:        claim.Claimant.EmailAddress,
		EmailType: payload.EmailType,
		Personalisation: map[string]string{
			"first_name": claim.Claimant.FirstName,
			"last_name":  claim.Claimant.LastName,
		},
	})
	if err != nil {
		return domain.MessageStatusError, err
	}
	return domain.MessageStatusCompleted, nil
}
