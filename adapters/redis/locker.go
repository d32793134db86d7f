package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"imgnote/adapters/lock"
)

// Locker implements lock.Locker on top of AutoRenewMutex so that every replica
// of the service shares the same per-key critical sections.
type Locker struct {
	client *redis.Client
	prefix string
	opts   []AutoRenewMutexOption
	logger *slog.Logger
}

var _ lock.Locker = (*Locker)(nil)

func NewLocker(client *redis.Client, prefix string, opts ...AutoRenewMutexOption) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		opts:   opts,
		logger: slog.Default().With(slog.String("caller", "RedisLocker")),
	}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "Locker.Lock"
	fullKey := l.prefix + key + ":lock"
	mutex := NewAutoRenewMutex(l.client, fullKey, l.opts...)
	if _, err := mutex.Lock(ctx); err != nil {
		return nil, fmt.Errorf("[%s] Fail to acquire lock %s, err=%w", op, fullKey, err)
	}
	return func() {
		if _, err := mutex.Unlock(); err != nil {
			l.logger.Warn("Fail to release lock", slog.String("key", fullKey), slog.Any("error", err))
		}
	}, nil
}
