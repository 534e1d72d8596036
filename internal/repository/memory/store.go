// Package memory provides in-process implementations of the repositories. It backs the
// single-node development profile and the end-to-end tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/internal/repository"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

type txKey struct{}

// Store holds every table in memory. Values are copied on the way in and out so callers
// never share state with the store.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	claims   map[uuid.UUID]domain.Claim
	cycles   map[uuid.UUID]domain.PaymentCycle
	payments map[uuid.UUID]domain.Payment
	messages map[uuid.UUID]domain.Message
}

func NewStore() *Store {
	return &Store{
		claims:   make(map[uuid.UUID]domain.Claim),
		cycles:   make(map[uuid.UUID]domain.PaymentCycle),
		payments: make(map[uuid.UUID]domain.Payment),
		messages: make(map[uuid.UUID]domain.Message),
	}
}

func (s *Store) Claims() repository.ClaimRepository               { return claimRepository{s} }
func (s *Store) PaymentCycles() repository.PaymentCycleRepository { return paymentCycleRepository{s} }
func (s *Store) Payments() repository.PaymentRepository           { return paymentRepository{s} }
func (s *Store) Messages() repository.MessageRepository           { return messageRepository{s} }
func (s *Store) Transactor() repository.Transactor                { return s }

type snapshot struct {
	claims   map[uuid.UUID]domain.Claim
	cycles   map[uuid.UUID]domain.PaymentCycle
	payments map[uuid.UUID]domain.Payment
	messages map[uuid.UUID]domain.Message
}

// WithinTransaction serialises transactions and restores every table when fn fails.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	saved := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot{
		claims:   cloneMap(s.claims, cloneClaim),
		cycles:   cloneMap(s.cycles, cloneCycle),
		payments: cloneMap(s.payments, identity[domain.Payment]),
		messages: cloneMap(s.messages, cloneMessage),
	}
}

func (s *Store) restore(saved snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.claims = saved.claims
	s.cycles = saved.cycles
	s.payments = saved.payments
	s.messages = saved.messages
}

type claimRepository struct{ s *Store }

func (r claimRepository) Create(_ context.Context, claim *domain.Claim) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.claims[claim.ID]; ok {
		return errDuplicateKey("claim", claim.ID)
	}
	r.s.claims[claim.ID] = cloneClaim(*claim)
	return nil
}

func (r claimRepository) Save(_ context.Context, claim *domain.Claim) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.claims[claim.ID]; !ok {
		return customError.WrapClaimNotFound(claim.ID.String())
	}
	r.s.claims[claim.ID] = cloneClaim(*claim)
	return nil
}

func (r claimRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Claim, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	claim, ok := r.s.claims[id]
	if !ok {
		return nil, customError.WrapClaimNotFound(id.String())
	}
	found := cloneClaim(claim)
	return &found, nil
}

func (r claimRepository) FindLiveClaimByNino(_ context.Context, nino string) (*domain.Claim, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *domain.Claim
	for _, claim := range r.s.claims {
		if claim.Claimant.Nino != nino || !claim.ClaimStatus.IsLive() {
			continue
		}
		if latest == nil || claim.CreatedAt.After(latest.CreatedAt) {
			found := cloneClaim(claim)
			latest = &found
		}
	}
	if latest == nil {
		return nil, customError.WrapClaimNotFound("for nino")
	}
	return latest, nil
}

func (r claimRepository) FindByStatuses(_ context.Context, statuses ...domain.ClaimStatus) ([]*domain.Claim, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[domain.ClaimStatus]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	claims := make([]*domain.Claim, 0)
	for _, claim := range r.s.claims {
		if wanted[claim.ClaimStatus] {
			found := cloneClaim(claim)
			claims = append(claims, &found)
		}
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].CreatedAt.Before(claims[j].CreatedAt) })
	return claims, nil
}

type paymentCycleRepository struct{ s *Store }

func (r paymentCycleRepository) Create(_ context.Context, cycle *domain.PaymentCycle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cycles[cycle.ID]; ok {
		return errDuplicateKey("payment cycle", cycle.ID)
	}
	r.s.cycles[cycle.ID] = cloneCycle(*cycle)
	return nil
}

func (r paymentCycleRepository) Save(_ context.Context, cycle *domain.PaymentCycle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cycles[cycle.ID]; !ok {
		return customError.WrapPaymentCycleNotFound(cycle.ID.String())
	}
	r.s.cycles[cycle.ID] = cloneCycle(*cycle)
	return nil
}

func (r paymentCycleRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.PaymentCycle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cycle, ok := r.s.cycles[id]
	if !ok {
		return nil, customError.WrapPaymentCycleNotFound(id.String())
	}
	found := cloneCycle(cycle)
	return &found, nil
}

func (r paymentCycleRepository) FindCurrentCycleForClaim(_ context.Context, claimID uuid.UUID) (*domain.PaymentCycle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var current *domain.PaymentCycle
	for _, cycle := range r.s.cycles {
		if cycle.ClaimID != claimID {
			continue
		}
		if current == nil || laterCycle(cycle, *current) {
			found := cloneCycle(cycle)
			current = &found
		}
	}
	if current == nil {
		return nil, customError.WrapPaymentCycleNotFound("for claim " + claimID.String())
	}
	return current, nil
}

func laterCycle(a, b domain.PaymentCycle) bool {
	if !a.CycleStartDate.Equal(b.CycleStartDate) {
		return a.CycleStartDate.After(b.CycleStartDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

type paymentRepository struct{ s *Store }

func (r paymentRepository) Create(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[payment.ID]; ok {
		return errDuplicateKey("payment", payment.ID)
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r paymentRepository) FindByPaymentCycleID(_ context.Context, paymentCycleID uuid.UUID) ([]*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payments := make([]*domain.Payment, 0)
	for _, payment := range r.s.payments {
		if payment.PaymentCycleID == paymentCycleID {
			found := payment
			payments = append(payments, &found)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].PaymentTimestamp.Before(payments[j].PaymentTimestamp)
	})
	return payments, nil
}

type messageRepository struct{ s *Store }

func (r messageRepository) Create(_ context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[message.ID]; ok {
		return errDuplicateKey("message", message.ID)
	}
	r.s.messages[message.ID] = cloneMessage(*message)
	return nil
}

func (r messageRepository) FindForProcessing(_ context.Context, messageType domain.MessageType, now time.Time, limit int) ([]*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	due := make([]*domain.Message, 0)
	for _, message := range r.s.messages {
		if message.MessageType != messageType || !isPending(message.Status) || message.ProcessAfter.After(now) {
			continue
		}
		found := cloneMessage(message)
		due = append(due, &found)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].MessageTimestamp.Before(due[j].MessageTimestamp) })

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r messageRepository) UpdateDelivery(_ context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.messages[message.ID]
	if !ok {
		return customError.WrapMessageNotFound(message.ID.String())
	}
	stored.DeliveryCount = message.DeliveryCount
	stored.Status = message.Status
	stored.LastError = message.LastError
	stored.ProcessAfter = message.ProcessAfter
	r.s.messages[message.ID] = stored
	return nil
}

func (r messageRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.messages, id)
	return nil
}

func (r messageRepository) CountPendingByType(_ context.Context) (map[domain.MessageType]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.MessageType]int)
	for _, message := range r.s.messages {
		if isPending(message.Status) {
			counts[message.MessageType]++
		}
	}
	return counts, nil
}

func isPending(status domain.MessageStatus) bool {
	return status == domain.MessageStatusNew || status == domain.MessageStatusError
}
