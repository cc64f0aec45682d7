package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/simonvc/erpledger/internal/ledger"
)

// Locker serializes journal number allocation for one scope across
// processes. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NopLocker relies on the store's unique constraints alone.
type NopLocker struct{}

func (NopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

const (
	lockTTL     = 5 * time.Second
	lockWait    = 2 * time.Second
	lockBackoff = 100 * time.Millisecond
)

type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client redislock.RedisClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(client), ttl: lockTTL, wait: lockWait}
}

// Lock waits up to two seconds for key. Failing to obtain it is a
// ConcurrencyError so callers can retry the whole operation.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockBackoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, ledger.Concurrency(key, err)
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

// journalLockKey is erpledger:lock:journal:PREFIX-YYYY-MM.
func journalLockKey(prefix string, date time.Time) string {
	return "erpledger:lock:journal:" + strings.TrimSuffix(ledger.JournalScope(prefix, date), "-")
}
