package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

const (
	auditEventExpiredClaim = "EXPIRED_CLAIM"
	auditEventFailure      = "FAILURE_EVENT"
)

// EventAuditor writes audit events to a dedicated structured log stream.
type EventAuditor struct {
	logger *zap.Logger
}

func NewEventAuditor(logger *zap.Logger) *EventAuditor {
	return &EventAuditor{logger: logger.Named("audit")}
}

func (a *EventAuditor) AuditExpiredClaim(_ context.Context, claim *domain.Claim) {
	a.logger.Info("claim expired",
		zap.String("event", auditEventExpiredClaim),
		zap.String("claim_id", claim.ID.String()),
		zap.String("claim_status", string(claim.ClaimStatus)),
		zap.String("card_status", string(claim.CardStatus)),
		zap.Time("claim_status_timestamp", claim.ClaimStatusTimestamp))
}

func (a *EventAuditor) AuditFailedEvent(_ context.Context, failure *customError.FailureEvent) {
	a.logger.Warn(failure.Message,
		zap.String("event", auditEventFailure),
		zap.String("event_type", failure.EventType),
		zap.Time("event_timestamp", failure.Timestamp),
		zap.Any("metadata", failure.Metadata),
		zap.Error(failure.Err))
}
