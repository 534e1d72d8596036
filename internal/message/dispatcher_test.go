package message

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/mocks"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

type stubHandler struct {
	messageType domain.MessageType
	process     func(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error)
	failed      []*customError.FailureEvent
}

func (h *stubHandler) MessageType() domain.MessageType { return h.messageType }

func (h *stubHandler) ProcessMessage(ctx context.Context, msg *domain.Message) (domain.MessageStatus, error) {
	return h.process(ctx, msg)
}

type hookedHandler struct {
	*stubHandler
}

func (h *hookedHandler) ProcessFailedMessage(_ context.Context, failure *customError.FailureEvent, _ *domain.Message) error {
	h.failed = append(h.failed, failure)
	return nil
}

func completes(context.Context, *domain.Message) (domain.MessageStatus, error) {
	return domain.MessageStatusCompleted, nil
}

var dispatchNow = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

func newMessage(messageType domain.MessageType) *domain.Message {
	return &domain.Message{
		ID:               uuid.New(),
		MessageType:      messageType,
		MessagePayload:   []byte(`{}`),
		MessageTimestamp: dispatchNow.Add(-time.Hour),
		Status:           domain.MessageStatusNew,
		ProcessAfter:     dispatchNow.Add(-time.Hour),
	}
}

func newTestDispatcher(t *testing.T, repo *mocks.MockMessageRepository, auditor *mocks.MockEventAuditor, types []domain.MessageType, handlers ...Handler) *Dispatcher {
	t.Helper()
	registry, err := NewRegistry(handlers...)
	require.NoError(t, err)
	var failureAuditor FailureAuditor
	if auditor != nil {
		failureAuditor = auditor
	}
	return NewDispatcher(registry, repo, failureAuditor, Options{
		BatchSize:  10,
		RetryDelay: 5 * time.Minute,
		Types:      types,
	}, utils.FixedClock(dispatchNow), zap.NewNop())
}

func TestDispatcher_CompletedMessagesAreDeleted(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	first, second := newMessage(domain.MessageTypeMakePayment), newMessage(domain.MessageTypeMakePayment)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeMakePayment, dispatchNow, 10).
		Return([]*domain.Message{first, second}, nil)
	repo.On("Delete", mock.Anything, first.ID).Return(nil)
	repo.On("Delete", mock.Anything, second.ID).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeMakePayment},
		&stubHandler{messageType: domain.MessageTypeMakePayment, process: completes})

	results, err := dispatcher.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Counts[domain.MessageStatusCompleted])
	assert.Equal(t, 0, results[0].Counts[domain.MessageStatusError])
	repo.AssertNotCalled(t, "UpdateDelivery", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestDispatcher_TransientErrorIsRetriedLater(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	msg := newMessage(domain.MessageTypeReportClaim)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeReportClaim, dispatchNow, 10).
		Return([]*domain.Message{msg}, nil)
	repo.On("UpdateDelivery", mock.Anything, msg).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeReportClaim},
		&stubHandler{messageType: domain.MessageTypeReportClaim, process: func(context.Context, *domain.Message) (domain.MessageStatus, error) {
			return domain.MessageStatusError, errors.New("reporting service unavailable")
		}})

	results, err := dispatcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Counts[domain.MessageStatusError])
	assert.Equal(t, domain.MessageStatusError, msg.Status)
	assert.Equal(t, 1, msg.DeliveryCount)
	assert.Equal(t, "reporting service unavailable", msg.LastError)
	assert.Equal(t, dispatchNow.Add(5*time.Minute), msg.ProcessAfter)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDispatcher_InvariantViolationFailsMessage(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	msg := newMessage(domain.MessageTypeDetermineEntitlement)
	msg.DeliveryCount = 2

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeDetermineEntitlement, dispatchNow, 10).
		Return([]*domain.Message{msg}, nil)
	repo.On("UpdateDelivery", mock.Anything, msg).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeDetermineEntitlement},
		&stubHandler{messageType: domain.MessageTypeDetermineEntitlement, process: func(context.Context, *domain.Message) (domain.MessageStatus, error) {
			return "", customError.NewInvariantViolation("claim %s is EXPIRED", "abc")
		}})

	results, err := dispatcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Counts[domain.MessageStatusFailed])
	assert.Equal(t, domain.MessageStatusFailed, msg.Status)
	assert.Equal(t, 3, msg.DeliveryCount)
	assert.Contains(t, msg.LastError, "EXPIRED")
}

func TestDispatcher_FailureEventIsAuditedAndCompensated(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	auditor := new(mocks.MockEventAuditor)
	msg := newMessage(domain.MessageTypeMakePayment)
	failure := customError.NewFailureEvent(customError.FailureEventPaymentFailed, "card rejected deposit", nil, nil)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeMakePayment, dispatchNow, 10).
		Return([]*domain.Message{msg}, nil)
	repo.On("UpdateDelivery", mock.Anything, msg).Return(nil)
	auditor.On("AuditFailedEvent", mock.Anything, failure).Return()

	handler := &hookedHandler{&stubHandler{messageType: domain.MessageTypeMakePayment, process: func(context.Context, *domain.Message) (domain.MessageStatus, error) {
		return domain.MessageStatusError, failure
	}}}
	dispatcher := newTestDispatcher(t, repo, auditor, []domain.MessageType{domain.MessageTypeMakePayment}, handler)

	require.NoError(t, dispatcher.RunOnce(context.Background()))

	assert.Equal(t, domain.MessageStatusError, msg.Status)
	assert.Equal(t, []*customError.FailureEvent{failure}, handler.failed)
	auditor.AssertExpectations(t)
}

func TestDispatcher_PanicIsRecoveredAsError(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	panicking, healthy := newMessage(domain.MessageTypeSendEmail), newMessage(domain.MessageTypeSendEmail)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeSendEmail, dispatchNow, 10).
		Return([]*domain.Message{panicking, healthy}, nil)
	repo.On("UpdateDelivery", mock.Anything, panicking).Return(nil)
	repo.On("Delete", mock.Anything, healthy.ID).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeSendEmail},
		&stubHandler{messageType: domain.MessageTypeSendEmail, process: func(_ context.Context, msg *domain.Message) (domain.MessageStatus, error) {
			if msg.ID == panicking.ID {
				panic("nil template")
			}
			return domain.MessageStatusCompleted, nil
		}})

	results, err := dispatcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Counts[domain.MessageStatusError])
	assert.Equal(t, 1, results[0].Counts[domain.MessageStatusCompleted])
	assert.Contains(t, panicking.LastError, "nil template")
	repo.AssertExpectations(t)
}

func TestDispatcher_MissingHandlerDoesNotBlockOtherTypes(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	orphan := newMessage(domain.MessageTypeReportClaim)
	email := newMessage(domain.MessageTypeSendEmail)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeReportClaim, dispatchNow, 10).
		Return([]*domain.Message{orphan}, nil)
	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeSendEmail, dispatchNow, 10).
		Return([]*domain.Message{email}, nil)
	repo.On("UpdateDelivery", mock.Anything, orphan).Return(nil)
	repo.On("Delete", mock.Anything, email.ID).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil,
		[]domain.MessageType{domain.MessageTypeReportClaim, domain.MessageTypeSendEmail},
		&stubHandler{messageType: domain.MessageTypeSendEmail, process: completes})

	results, err := dispatcher.Run(context.Background())

	require.Error(t, err)
	assert.True(t, customError.IsConfigurationFault(err))
	assert.Contains(t, err.Error(), "REPORT_CLAIM")
	require.Len(t, results, 1)
	assert.Equal(t, domain.MessageTypeSendEmail, results[0].MessageType)
	assert.Equal(t, domain.MessageStatusError, orphan.Status)
	assert.Equal(t, 1, orphan.DeliveryCount)
	assert.Equal(t, dispatchNow.Add(5*time.Minute), orphan.ProcessAfter)
	repo.AssertExpectations(t)
}

func TestDispatcher_UnexpectedStatusIsStoredAsError(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	msg := newMessage(domain.MessageTypeSendEmail)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeSendEmail, dispatchNow, 10).
		Return([]*domain.Message{msg}, nil)
	repo.On("UpdateDelivery", mock.Anything, msg).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeSendEmail},
		&stubHandler{messageType: domain.MessageTypeSendEmail, process: func(context.Context, *domain.Message) (domain.MessageStatus, error) {
			return domain.MessageStatusNew, nil
		}})

	results, err := dispatcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Counts[domain.MessageStatusCompleted])
	assert.Equal(t, 0, results[0].Counts[domain.MessageStatusError])
	assert.Equal(t, 0, results[0].Counts[domain.MessageStatusFailed])
	assert.Equal(t, domain.MessageStatusError, msg.Status)
	assert.Contains(t, msg.LastError, "unexpected status")
}

func TestDispatcher_LastErrorIsTruncated(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	msg := newMessage(domain.MessageTypeSendEmail)

	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeSendEmail, dispatchNow, 10).
		Return([]*domain.Message{msg}, nil)
	repo.On("UpdateDelivery", mock.Anything, msg).Return(nil)

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeSendEmail},
		&stubHandler{messageType: domain.MessageTypeSendEmail, process: func(context.Context, *domain.Message) (domain.MessageStatus, error) {
			return domain.MessageStatusError, errors.New(strings.Repeat("x", 5000))
		}})

	require.NoError(t, dispatcher.RunOnce(context.Background()))
	assert.Len(t, msg.LastError, maxLastErrorLength)
}

func TestDispatcher_LoadFailureIsReported(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	repo.On("FindForProcessing", mock.Anything, domain.MessageTypeSendEmail, dispatchNow, 10).
		Return(nil, errors.New("connection refused"))

	dispatcher := newTestDispatcher(t, repo, nil, []domain.MessageType{domain.MessageTypeSendEmail},
		&stubHandler{messageType: domain.MessageTypeSendEmail, process: completes})

	err := dispatcher.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDispatcher_PendingCounts(t *testing.T) {
	repo := new(mocks.MockMessageRepository)
	repo.On("CountPendingByType", mock.Anything).
		Return(map[domain.MessageType]int{domain.MessageTypeMakePayment: 3}, nil)

	dispatcher := newTestDispatcher(t, repo, nil, nil,
		&stubHandler{messageType: domain.MessageTypeSendEmail, process: completes})

	counts, err := dispatcher.PendingCounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.MessageTypeMakePayment])
}
