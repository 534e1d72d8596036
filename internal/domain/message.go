package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeDetermineEntitlement MessageType = "DETERMINE_ENTITLEMENT"
	MessageTypeMakePayment          MessageType = "MAKE_PAYMENT"
	MessageTypeReportClaim          MessageType = "REPORT_CLAIM"
	MessageTypeSendEmail            MessageType = "SEND_EMAIL"
)

// MessageTypes is the closed set of message types, in processing order.
var MessageTypes = []MessageType{
	MessageTypeDetermineEntitlement,
	MessageTypeMakePayment,
	MessageTypeReportClaim,
	MessageTypeSendEmail,
}

// IsValid reports whether t belongs to the closed set of message types.
func (t MessageType) IsValid() bool {
	for _, known := range MessageTypes {
		if t == known {
			return true
		}
	}
	return false
}

type MessageStatus string

const (
	MessageStatusNew       MessageStatus = "NEW"
	MessageStatusCompleted MessageStatus = "COMPLETED"
	MessageStatusError     MessageStatus = "ERROR"
	MessageStatusFailed    MessageStatus = "FAILED"
)

// MessageStatuses lists every status a processed message can end with.
var MessageStatuses = []MessageStatus{
	MessageStatusCompleted,
	MessageStatusError,
	MessageStatusFailed,
}

// IsValid reports whether s is a known message status.
func (s MessageStatus) IsValid() bool {
	switch s {
	case MessageStatusNew, MessageStatusCompleted, MessageStatusError, MessageStatusFailed:
		return true
	}
	return false
}

// Message is a durable unit of asynchronous work. It is processed at least once and
// deleted only once its handler completes.
type Message struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	MessageType      MessageType   `json:"type" db:"message_type"`
	MessagePayload   []byte        `json:"payload" db:"message_payload"`
	MessageTimestamp time.Time     `json:"message_timestamp" db:"message_timestamp"`
	DeliveryCount    int           `json:"delivery_count" db:"delivery_count"`
	Status           MessageStatus `json:"status" db:"status"`
	LastError        string        `json:"last_error,omitempty" db:"last_error"`
	ProcessAfter     time.Time     `json:"process_after" db:"process_after"`
}

// DetermineEntitlementMessagePayload asks for a claim to be re-evaluated for a cycle.
type DetermineEntitlementMessagePayload struct {
	ClaimID                uuid.UUID     `json:"claimId" validate:"required"`
	CurrentPaymentCycleID  uuid.UUID     `json:"currentPaymentCycleId" validate:"required"`
	PreviousPaymentCycleID uuid.NullUUID `json:"previousPaymentCycleId"`
}

// MakePaymentMessagePayload asks for a cycle's entitlement to be paid onto the card.
type MakePaymentMessagePayload struct {
	ClaimID        uuid.UUID `json:"claimId" validate:"required"`
	PaymentCycleID uuid.UUID `json:"paymentCycleId" validate:"required"`
	CardAccountID  string    `json:"cardAccountId"`
}

// ReportClaimMessagePayload records a claim event for reporting.
type ReportClaimMessagePayload struct {
	ClaimID                        uuid.UUID                       `json:"claimId" validate:"required"`
	IdentityAndEligibilityResponse *IdentityAndEligibilityResponse `json:"identityAndEligibilityResponse,omitempty"`
	ClaimAction                    ClaimAction                     `json:"claimAction" validate:"required"`
	Timestamp                      time.Time                       `json:"timestamp" validate:"required"`
	UpdatedClaimantFields          []string                        `json:"updatedClaimantFields,omitempty"`
}

type EmailType string

const (
	EmailTypeClaimNoLongerEligible         EmailType = "CLAIM_NO_LONGER_ELIGIBLE"
	EmailTypeNoChildOnFeedNoLongerEligible EmailType = "NO_CHILD_ON_FEED_NO_LONGER_ELIGIBLE"
	EmailTypePaymentFailed                 EmailType = "PAYMENT_FAILED"
)

// SendEmailMessagePayload asks for a notification email to be sent to the claimant.
type SendEmailMessagePayload struct {
	ClaimID   uuid.UUID `json:"claimId" validate:"required"`
	EmailType EmailType `json:"emailType" validate:"required"`
}
