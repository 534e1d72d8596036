package domain

import "fmt"

// ClaimAction tags a claim transition in reports, e.g. UPDATED_FROM_ACTIVE_TO_EXPIRED.
type ClaimAction string

const (
	ClaimActionNew                               ClaimAction = "NEW"
	ClaimActionUpdatedFromNewToActive            ClaimAction = "UPDATED_FROM_NEW_TO_ACTIVE"
	ClaimActionUpdatedFromPendingToActive        ClaimAction = "UPDATED_FROM_PENDING_TO_ACTIVE"
	ClaimActionUpdatedFromPendingExpiryToActive  ClaimAction = "UPDATED_FROM_PENDING_EXPIRY_TO_ACTIVE"
	ClaimActionUpdatedFromActiveToPendingExpiry  ClaimAction = "UPDATED_FROM_ACTIVE_TO_PENDING_EXPIRY"
	ClaimActionUpdatedFromNewToPendingExpiry     ClaimAction = "UPDATED_FROM_NEW_TO_PENDING_EXPIRY"
	ClaimActionUpdatedFromPendingToPendingExpiry ClaimAction = "UPDATED_FROM_PENDING_TO_PENDING_EXPIRY"
	ClaimActionUpdatedFromActiveToExpired        ClaimAction = "UPDATED_FROM_ACTIVE_TO_EXPIRED"
	ClaimActionUpdatedFromNewToExpired           ClaimAction = "UPDATED_FROM_NEW_TO_EXPIRED"
	ClaimActionUpdatedFromPendingToExpired       ClaimAction = "UPDATED_FROM_PENDING_TO_EXPIRED"
	ClaimActionUpdatedFromPendingExpiryToExpired ClaimAction = "UPDATED_FROM_PENDING_EXPIRY_TO_EXPIRED"
	ClaimActionUpdated                           ClaimAction = "UPDATED"
)

var claimActions = map[ClaimAction]struct{}{
	ClaimActionNew:                               {},
	ClaimActionUpdatedFromNewToActive:            {},
	ClaimActionUpdatedFromPendingToActive:        {},
	ClaimActionUpdatedFromPendingExpiryToActive:  {},
	ClaimActionUpdatedFromActiveToPendingExpiry:  {},
	ClaimActionUpdatedFromNewToPendingExpiry:     {},
	ClaimActionUpdatedFromPendingToPendingExpiry: {},
	ClaimActionUpdatedFromActiveToExpired:        {},
	ClaimActionUpdatedFromNewToExpired:           {},
	ClaimActionUpdatedFromPendingToExpired:       {},
	ClaimActionUpdatedFromPendingExpiryToExpired: {},
	ClaimActionUpdated:                           {},
}

// ClaimActionForTransition returns the tag for a from -> to transition. Transitions the
// lifecycle engine never emits return an error.
func ClaimActionForTransition(from, to ClaimStatus) (ClaimAction, error) {
	action := ClaimAction(fmt.Sprintf("UPDATED_FROM_%s_TO_%s", from, to))
	if _, ok := claimActions[action]; !ok {
		return "", fmt.Errorf("no claim action for transition %s -> %s", from, to)
	}
	return action, nil
}
