package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/lifecycle"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// NotificationSender turns claimant notifications into SEND_EMAIL messages.
type NotificationSender struct {
	queue lifecycle.MessageQueue
}

func NewNotificationSender(queue lifecycle.MessageQueue) *NotificationSender {
	return &NotificationSender{queue: queue}
}

func (s *NotificationSender) SendClaimNoLongerEligible(ctx context.Context, claim *domain.Claim) error {
	return s.send(ctx, claim.ID, domain.EmailTypeClaimNoLongerEligible)
}

func (s *NotificationSender) SendChildDisappearedFromFeed(ctx context.Context, claim *domain.Claim) error {
	return s.send(ctx, claim.ID, domain.EmailTypeNoChildOnFeedNoLongerEligible)
}

func (s *NotificationSender) SendPaymentFailed(ctx context.Context, claimID uuid.UUID) error {
	return s.send(ctx, claimID, domain.EmailTypePaymentFailed)
}

func (s *NotificationSender) send(ctx context.Context, claimID uuid.UUID, emailType domain.EmailType) error {
	return s.queue.SendMessage(ctx, domain.MessageTypeSendEmail, domain.SendEmailMessagePayload{
		ClaimID:   claimID,
		EmailType: emailType,
	})
}

// ClaimMessageSender turns claim transitions into REPORT_CLAIM messages.
type ClaimMessageSender struct {
	queue lifecycle.MessageQueue
	clock utils.Clock
}

func NewClaimMessageSender(queue lifecycle.MessageQueue, clock utils.Clock) *ClaimMessageSender {
	return &ClaimMessageSender{queue: queue, clock: clock}
}

func (s *ClaimMessageSender) SendReportClaimMessage(ctx context.Context, claim *domain.Claim, response domain.IdentityAndEligibilityResponse, action domain.ClaimAction) error {
	return s.queue.SendMessage(ctx, domain.MessageTypeReportClaim, domain.ReportClaimMessagePayload{
		ClaimID:                        claim.ID,
		IdentityAndEligibilityResponse: &response,
		ClaimAction:                    action,
		Timestamp:                      s.clock(),
	})
}
