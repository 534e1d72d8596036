package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/claimant-engine/internal/domain"
)

func errDuplicateKey(table string, id uuid.UUID) error {
	return fmt.Errorf("duplicate %s %s", table, id)
}

func cloneMap[V any](in map[uuid.UUID]V, clone func(V) V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(in))
	for id, value := range in {
		out[id] = clone(value)
	}
	return out
}

func identity[V any](v V) V { return v }

// Claims hold no reference types.
func cloneClaim(c domain.Claim) domain.Claim { return c }

func cloneCycle(c domain.PaymentCycle) domain.PaymentCycle {
	if c.ChildrenDob != nil {
		c.ChildrenDob = append([]time.Time(nil), c.ChildrenDob...)
	}
	if c.VoucherEntitlement != nil {
		entitlement := *c.VoucherEntitlement
		entitlement.VoucherEntitlements = append([]domain.VoucherEntitlement(nil), c.VoucherEntitlement.VoucherEntitlements...)
		c.VoucherEntitlement = &entitlement
	}
	return c
}

func cloneMessage(m domain.Message) domain.Message {
	m.MessagePayload = append([]byte(nil), m.MessagePayload...)
	return m
}
