package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	customError "github.com/segyhp/claimant-engine/pkg/errors"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

// MemoryLocker is a single-process Locker for development and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	clock utils.Clock
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemoryLocker(clock utils.Clock) *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryEntry), clock: clock}
}

func (l *MemoryLocker) Acquire(_ context.Context, name string, minHold, maxHold time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, ok := l.held[name]; ok && now.Before(entry.expiresAt) {
		return nil, customError.ErrLockNotAcquired
	}

	token := uuid.NewString()
	l.held[name] = memoryEntry{token: token, expiresAt: now.Add(maxHold)}
	return &memoryLease{locker: l, name: name, token: token, acquiredAt: now, minHold: minHold}, nil
}

type memoryLease struct {
	locker     *MemoryLocker
	name       string
	token      string
	acquiredAt time.Time
	minHold    time.Duration
}

func (l *memoryLease) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	entry, ok := l.locker.held[l.name]
	if !ok || entry.token != l.token {
		return nil
	}

	holdUntil := l.acquiredAt.Add(l.minHold)
	if l.locker.clock().Before(holdUntil) {
		entry.expiresAt = holdUntil
		l.locker.held[l.name] = entry
		return nil
	}
	delete(l.locker.held, l.name)
	return nil
}
