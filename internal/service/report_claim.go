package service

import (
	"context"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/message"
)

// ClaimReportSink receives claim reports.
type ClaimReportSink interface {
	ReportClaim(ctx context.Context, report domain.ReportClaimMessagePayload) error
}

// ReportClaimHandler forwards REPORT_CLAIM messages to the reporting service.
type ReportClaimHandler struct {
	sink ClaimReportSink
}

func NewReportClaimHandler(sink ClaimReportSink) *ReportClaimHandler {
	return &ReportClaimHandler{sink: sink}
}

func (h *ReportClaimHandler) MessageType() domain.MessageType {
	return domain.MessageTypeReportClaim
}

func (h *ReportClaimHandler) ProcessMessage(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error) {
	payload, err := message.DecodePayload[domain.ReportClaimMessagePayload](msg)
	if err != nil {
		return domain.MessageStatusFailed, err
	}
	if err := h.sink.ReportClaim(ctx, payload); err != nil {
		return domain.MessageStatusError, err
	}
	return domain.MessageStatusCompleted, nil
}
