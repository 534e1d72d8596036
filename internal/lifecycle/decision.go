package lifecycle

import (
	"github.com/segyhp/claimant-engine/internal/domain"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

// Facts are the signals a transition is decided on.
type Facts struct {
	From       domain.ClaimStatus
	CardStatus domain.CardStatus
	Eligible   bool
	// ChildrenNow is true when the fresh decision reports at least one child.
	ChildrenNow bool
	// ChildCarryOver is true when a child under four on the previous cycle would still be
	// under four now but is missing from the feed.
	ChildCarryOver bool
	// PregnancyCarryOver is true when the claimant's due date still entitles them to a
	// pregnancy voucher at the start of the current cycle.
	PregnancyCarryOver bool
}

// Transition is the outcome of one cycle evaluation.
type Transition struct {
	From    domain.ClaimStatus
	To      domain.ClaimStatus
	Changed bool
	Action  domain.ClaimAction
	// CardStatus is empty when the card stays as it is.
	CardStatus domain.CardStatus
	// Notification is empty when no email is sent.
	Notification domain.EmailType
	AuditExpired bool
	ShortenCycle bool
	MakePayment  bool
}

// Decide applies the claim lifecycle decision table. The first matching row wins.
func Decide(f Facts) (Transition, error) {
	if f.From.IsTerminal() {
		return Transition{}, customError.NewInvariantViolation("claim in terminal status %s cannot be re-evaluated", f.From)
	}

	if f.Eligible {
		t := Transition{From: f.From, To: domain.ClaimStatusActive, MakePayment: true}
		if f.CardStatus == domain.CardStatusPendingCancellation {
			t.CardStatus = domain.CardStatusActive
		}
		return withAction(t)
	}

	switch f.From {
	case domain.ClaimStatusActive, domain.ClaimStatusNew, domain.ClaimStatusPending:
		switch {
		case f.ChildrenNow:
			return pendingExpiry(f.From, domain.EmailTypeClaimNoLongerEligible)
		case f.ChildCarryOver:
			return pendingExpiry(f.From, domain.EmailTypeNoChildOnFeedNoLongerEligible)
		case f.PregnancyCarryOver:
			return pendingExpiry(f.From, domain.EmailTypeClaimNoLongerEligible)
		default:
			return expired(f.From)
		}
	case domain.ClaimStatusPendingExpiry:
		if f.PregnancyCarryOver {
			return Transition{From: f.From, To: domain.ClaimStatusPendingExpiry, ShortenCycle: true}, nil
		}
		return expired(f.From)
	}

	return Transition{}, customError.NewInvariantViolation("no lifecycle transition from claim status %q", f.From)
}

func pendingExpiry(from domain.ClaimStatus, notification domain.EmailType) (Transition, error) {
	return withAction(Transition{
		From:         from,
		To:           domain.ClaimStatusPendingExpiry,
		CardStatus:   domain.CardStatusPendingCancellation,
		Notification: notification,
		ShortenCycle: true,
	})
}

func expired(from domain.ClaimStatus) (Transition, error) {
	return withAction(Transition{
		From:         from,
		To:           domain.ClaimStatusExpired,
		CardStatus:   domain.CardStatusPendingCancellation,
		Notification: domain.EmailTypeClaimNoLongerEligible,
		AuditExpired: true,
	})
}

func withAction(t Transition) (Transition, error) {
	if t.From == t.To {
		return t, nil
	}
	action, err := domain.ClaimActionForTransition(t.From, t.To)
	if err != nil {
		return Transition{}, customError.NewInvariantViolation("%v", err)
	}
	t.Changed = true
	t.Action = action
	return t, nil
}
