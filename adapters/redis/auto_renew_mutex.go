package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// AutoRenewMutex is a single-attempt redsync mutex wrapped in a retry loop. While it
// is held a background goroutine keeps pushing its expiry forward.
type AutoRenewMutex struct {
	mutex   *redsync.Mutex
	options autoRenewMutexOptions

	mu     sync.Mutex
	held   bool
	cancel context.CancelFunc
	done   chan struct{}
}

type autoRenewMutexOptions struct {
	renewInterval time.Duration
	retryDelay    time.Duration
	expiry        time.Duration
	skipLockError bool
}

type AutoRenewMutexOption func(*autoRenewMutexOptions)

// WithAutoRenewMutexRenewInterval sets how often the lock is extended.
func WithAutoRenewMutexRenewInterval(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.renewInterval = d
	}
}

// WithAutoRenewMutexRetryDelay sets the wait between two acquisition attempts.
func WithAutoRenewMutexRetryDelay(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.retryDelay = d
	}
}

// WithAutoRenewMutexExpiry sets the TTL of the lock key.
func WithAutoRenewMutexExpiry(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.expiry = d
	}
}

// WithAutoRenewMutexSkipLockError keeps retrying on redis errors instead of failing.
func WithAutoRenewMutexSkipLockError(skip bool) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.skipLockError = skip
	}
}

func NewAutoRenewMutex(client *redis.Client, key string, opts ...AutoRenewMutexOption) IAutoRenewMutex {
	options := autoRenewMutexOptions{
		expiry:     8 * time.Second,
		retryDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.renewInterval <= 0 {
		options.renewInterval = options.expiry / 3
	}

	pool := goredis.NewPool(client)
	return &AutoRenewMutex{
		mutex: redsync.New(pool).NewMutex(key,
			redsync.WithExpiry(options.expiry),
			redsync.WithTries(1),
		),
		options: options,
	}
}

// Lock retries until the lock is taken or ctx is done; in the latter case ctx.Err()
// is returned as is. The returned context ends once the lock is released or can no
// longer be extended.
func (m *AutoRenewMutex) Lock(ctx context.Context) (context.Context, error) {
	const op = "AutoRenewMutex.Lock"
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := m.mutex.LockContext(ctx)
		if err == nil {
			return m.hold(ctx), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var redisErr *redsync.RedisError
		if !m.options.skipLockError && errors.As(err, &redisErr) {
			return nil, fmt.Errorf("[%s] Fail to acquire lock, err=%w", op, err)
		}
		if err := sleepContext(ctx, m.options.retryDelay); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *AutoRenewMutex) hold(parent context.Context) context.Context {
	lockCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	m.mu.Lock()
	m.held = true
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go m.renew(lockCtx, done)
	return lockCtx
}

func (m *AutoRenewMutex) renew(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.options.renewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ok, err := m.mutex.ExtendContext(ctx); err != nil || !ok {
				m.release()
				return
			}
		}
	}
}

// release stops the renewal and returns the channel closed when it has exited.
func (m *AutoRenewMutex) release() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		m.held = false
		m.cancel()
	}
	return m.done
}

func (m *AutoRenewMutex) Unlock() (bool, error) {
	if done := m.release(); done != nil {
		<-done
	}
	return m.mutex.Unlock()
}

func (m *AutoRenewMutex) Valid() bool {
	m.mu.Lock()
	held := m.held
	m.mu.Unlock()
	return held && time.Now().Before(m.mutex.Until())
}
