package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

const keyPrefix = "claimant-engine:lock:"

// releaseScript releases the lock only when the caller still owns it. A lease released before
// its minimum hold keeps the key alive for the remainder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
local remaining = tonumber(ARGV[2])
if remaining > 0 then
	return redis.call("PEXPIRE", KEYS[1], remaining)
end
return redis.call("DEL", KEYS[1])
`)

type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, minHold, maxHold time.Duration) (Lease, error) {
	token := uuid.NewString()
	key := keyPrefix + name

	ok, err := l.client.SetNX(ctx, key, token, maxHold).Result()
	if err != nil {
		return nil, customError.WrapLockError(err)
	}
	if !ok {
		return nil, customError.ErrLockNotAcquired
	}

	return &redisLease{
		client:     l.client,
		key:        key,
		token:      token,
		acquiredAt: time.Now(),
		minHold:    minHold,
	}, nil
}

type redisLease struct {
	client     redis.UniversalClient
	key        string
	token      string
	acquiredAt time.Time
	minHold    time.Duration
}

func (l *redisLease) Release(ctx context.Context) error {
	remaining := l.minHold - time.Since(l.acquiredAt)
	if remaining < 0 {
		remaining = 0
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token, remaining.Milliseconds()).Err(); err != nil {
		return customError.WrapLockError(err)
	}
	return nil
}
