package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLocker_SerialisesSameKey(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, _, cleanup := setupMiniredis(t)
	defer cleanup()

	locker := NewLocker(client, "imgnote:", WithAutoRenewMutexRetryDelay(5*time.Millisecond))

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "image:1:summary")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}

func TestLocker_ContextDeadlineWhileHeld(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, server, cleanup := setupMiniredis(t)
	defer cleanup()

	locker := NewLocker(client, "imgnote:", WithAutoRenewMutexRetryDelay(5*time.Millisecond))
	unlock, err := locker.Lock(context.Background(), "image:2:annotation")
	require.NoError(t, err)
	assert.True(t, server.Exists("imgnote:image:2:annotation:lock"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "image:2:annotation")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, server.Exists("imgnote:image:2:annotation:lock"))
}
