package lock

import (
	"context"
	"time"
)

// Locker grants named, time-bounded leases so only one instance runs a scheduled job at a time.
type Locker interface {
	// Acquire takes the named lock for at most maxHold. It returns ErrLockNotAcquired when another
	// holder has it. A released lease stays held until minHold has passed since acquisition so
	// instances with skewed clocks do not run the same job twice.
	Acquire(ctx context.Context, name string, minHold, maxHold time.Duration) (Lease, error)
}

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}
