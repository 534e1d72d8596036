package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

const maxLastErrorLength = 1000

// FailureAuditor records failure events raised by handlers.
type FailureAuditor interface {
	AuditFailedEvent(ctx context.Context, failure *customError.FailureEvent)
}

// Options tune a dispatcher run.
type Options struct {
	// BatchSize caps the number of messages fetched per type per run.
	BatchSize int
	// RetryDelay is how long an ERROR message waits before its next attempt.
	RetryDelay time.Duration
	// RatePerSecond limits message processing across the run. Zero disables the limit.
	RatePerSecond float64
	// Types restricts and orders the types processed. Empty means every known type.
	Types []domain.MessageType
}

// Dispatcher delivers due messages to their registered handler and records the outcome.
type Dispatcher struct {
	registry *Registry
	repo     repository.MessageRepository
	auditor  FailureAuditor
	options  Options
	limiter  *rate.Limiter
	clock    utils.Clock
	logger   *zap.Logger
}

// RunResult summarises one run for a single message type.
type RunResult struct {
	MessageType domain.MessageType
	Counts      map[domain.MessageStatus]int
}

func NewDispatcher(
	registry *Registry,
	repo repository.MessageRepository,
	auditor FailureAuditor,
	options Options,
	clock utils.Clock,
	logger *zap.Logger,
) *Dispatcher {
	if options.BatchSize <= 0 {
		options.BatchSize = 100
	}
	if len(options.Types) == 0 {
		options.Types = domain.MessageTypes
	}

	var limiter *rate.Limiter
	if options.RatePerSecond > 0 {
		burst := int(options.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RatePerSecond), burst)
	}

	logger = logger.Named("dispatcher")
	if missing := registry.Missing(); len(missing) > 0 {
		logger.Warn("message types without a handler", zap.Any("message_types", missing))
	}

	return &Dispatcher{
		registry: registry,
		repo:     repo,
		auditor:  auditor,
		options:  options,
		limiter:  limiter,
		clock:    clock,
		logger:   logger,
	}
}

// RunOnce processes one batch of every message type in order. A failure for one type never
// stops the others; all type-level errors are joined into the returned error.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	_, err := d.Run(ctx)
	return err
}

// Run is RunOnce that also reports per-type outcome counts.
func (d *Dispatcher) Run(ctx context.Context) ([]RunResult, error) {
	var (
		results []RunResult
		errs    []error
	)

	for _, messageType := range d.options.Types {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := d.processType(ctx, messageType)
		if result != nil {
			results = append(results, *result)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	joined := errors.Join(errs...)
	if joined != nil {
		dispatchRunsTotal.WithLabelValues("error").Inc()
	} else {
		dispatchRunsTotal.WithLabelValues("success").Inc()
	}
	return results, joined
}

// PendingCounts reports how many NEW or ERROR messages are queued per type.
func (d *Dispatcher) PendingCounts(ctx context.Context) (map[domain.MessageType]int, error) {
	counts, err := d.repo.CountPendingByType(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return counts, nil
}

func (d *Dispatcher) processType(ctx context.Context, messageType domain.MessageType) (*RunResult, error) {
	now := d.clock()
	messages, err := d.repo.FindForProcessing(ctx, messageType, now, d.options.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("loading %s messages: %w", messageType, customError.WrapDatabaseError(err))
	}
	if len(messages) == 0 {
		return nil, nil
	}

	handler, ok := d.registry.Handler(messageType)
	if !ok {
		return nil, d.markUnhandled(ctx, messageType, messages, now)
	}

	result := &RunResult{MessageType: messageType, Counts: make(map[domain.MessageStatus]int, len(domain.MessageStatuses))}
	for _, status := range domain.MessageStatuses {
		result.Counts[status] = 0
	}

	var errs []error
	for _, msg := range messages {
		if d.limiter != nil {
			// Waiting must not be cut short by cancellation mid-batch.
			if err := d.limiter.Wait(context.WithoutCancel(ctx)); err != nil {
				errs = append(errs, err)
				break
			}
		}

		status, err := d.deliver(ctx, handler, msg)
		if err != nil {
			errs = append(errs, err)
		}
		if status.IsValid() && status != domain.MessageStatusNew {
			result.Counts[status]++
			messagesProcessedTotal.WithLabelValues(string(messageType), string(status)).Inc()
		}
	}

	d.logger.Info("processed messages",
		zap.String("message_type", string(messageType)),
		zap.Int("batch_size", len(messages)),
		zap.Int("completed", result.Counts[domain.MessageStatusCompleted]),
		zap.Int("error", result.Counts[domain.MessageStatusError]),
		zap.Int("failed", result.Counts[domain.MessageStatusFailed]),
	)
	return result, errors.Join(errs...)
}

// markUnhandled records a delivery attempt on every message of a type that has no handler so
// they are retried once the handler is deployed.
func (d *Dispatcher) markUnhandled(ctx context.Context, messageType domain.MessageType, messages []*domain.Message, now time.Time) error {
	fault := customError.NewConfigurationFault(string(messageType), len(messages))
	d.logger.Error("no handler registered for message type",
		zap.String("message_type", string(messageType)),
		zap.Int("message_count", len(messages)),
	)

	errs := []error{fault}
	for _, msg := range messages {
		d.recordAttempt(msg, domain.MessageStatusError, fault, now)
		if err := d.repo.UpdateDelivery(ctx, msg); err != nil {
			errs = append(errs, customError.WrapDatabaseError(err))
		}
	}
	return errors.Join(errs...)
}

// deliver runs the handler for one message and persists the outcome. The returned error is
// only set when the outcome itself could not be stored.
func (d *Dispatcher) deliver(ctx context.Context, handler Handler, msg *domain.Message) (domain.MessageStatus, error) {
	start := time.Now()
	status, processErr := d.invoke(ctx, handler, msg)
	messageProcessingDuration.WithLabelValues(string(msg.MessageType)).Observe(time.Since(start).Seconds())

	logger := d.logger.With(
		zap.String("message_id", msg.ID.String()),
		zap.String("message_type", string(msg.MessageType)),
	)

	if processErr != nil {
		status = d.statusForError(ctx, handler, msg, processErr, logger)
	} else if status != domain.MessageStatusCompleted && status != domain.MessageStatusError && status != domain.MessageStatusFailed {
		logger.Error("handler returned an unexpected status", zap.String("status", string(status)))
		processErr = fmt.Errorf("handler returned unexpected status %q", status)
		status = ""
	}

	if status == domain.MessageStatusCompleted {
		if err := d.repo.Delete(ctx, msg.ID); err != nil {
			logger.Error("failed to delete completed message", zap.Error(err))
			return status, customError.WrapDatabaseError(err)
		}
		return status, nil
	}

	persisted := status
	if persisted == "" {
		persisted = domain.MessageStatusError
	}
	d.recordAttempt(msg, persisted, processErr, d.clock())
	if err := d.repo.UpdateDelivery(ctx, msg); err != nil {
		logger.Error("failed to record message delivery", zap.Error(err))
		return status, customError.WrapDatabaseError(err)
	}
	return status, nil
}

// invoke calls the handler, turning a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, handler Handler, msg *domain.Message) (status domain.MessageStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = domain.MessageStatusError
			err = fmt.Errorf("panic processing message: %v", r)
		}
	}()
	return handler.ProcessMessage(ctx, msg)
}

func (d *Dispatcher) statusForError(ctx context.Context, handler Handler, msg *domain.Message, err error, logger *zap.Logger) domain.MessageStatus {
	if customError.IsInvariantViolation(err) {
		logger.Error("message failed permanently", zap.Error(err))
		return domain.MessageStatusFailed
	}

	if failure, ok := customError.AsFailureEvent(err); ok {
		logger.Warn("message raised failure event",
			zap.String("event_type", failure.EventType),
			zap.Error(err),
		)
		if d.auditor != nil {
			d.auditor.AuditFailedEvent(ctx, failure)
		}
		if hook, ok := handler.(FailedMessageHandler); ok {
			if hookErr := hook.ProcessFailedMessage(ctx, failure, msg); hookErr != nil {
				logger.Error("failed message handler returned an error", zap.Error(hookErr))
			}
		}
		return domain.MessageStatusError
	}

	logger.Warn("message processing failed, will retry", zap.Error(err))
	return domain.MessageStatusError
}

func (d *Dispatcher) recordAttempt(msg *domain.Message, status domain.MessageStatus, err error, now time.Time) {
	msg.Status = status
	msg.DeliveryCount++
	msg.LastError = ""
	if err != nil {
		msg.LastError = truncate(err.Error(), maxLastErrorLength)
	}
	if status == domain.MessageStatusError {
		msg.ProcessAfter = now.Add(d.options.RetryDelay)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
