package xkeylock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newForTest(t *testing.T, opts ...Option) Locker {
	t.Helper()
	l, err := New(opts...)
	require.NoError(t, err)
	return l
}

func TestAcquireNilContext(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	//nolint:staticcheck // 验证 nil ctx 的错误返回
	_, err := l.Acquire(nil, "k")
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestAcquireAndUnlock(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	h, err := l.Acquire(context.Background(), "TenantA|")
	require.NoError(t, err)
	assert.Equal(t, "TenantA|", h.Key())
	assert.Equal(t, 1, l.Len())

	require.NoError(t, h.Unlock())
	assert.ErrorIs(t, h.Unlock(), ErrLockNotHeld)
	assert.Equal(t, 0, l.Len())
}

func TestEmptyKeyIsValid(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	h, err := l.TryAcquire("")
	require.NoError(t, err)

	_, err = l.TryAcquire("")
	assert.ErrorIs(t, err, ErrLockOccupied)

	// "|" 是空字符串租户的段，与 null 租户的空段互不干扰
	h2, err := l.TryAcquire("|")
	require.NoError(t, err)

	require.NoError(t, h.Unlock())
	require.NoError(t, h2.Unlock())
}

func TestTryAcquire(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	h1, err := l.TryAcquire("a")
	require.NoError(t, err)

	h2, err := l.TryAcquire("a")
	assert.ErrorIs(t, err, ErrLockOccupied)
	assert.Nil(t, h2)

	h3, err := l.TryAcquire("b")
	require.NoError(t, err)

	require.NoError(t, h1.Unlock())
	h4, err := l.TryAcquire("a")
	require.NoError(t, err)

	require.NoError(t, h3.Unlock())
	require.NoError(t, h4.Unlock())
}

func TestAcquireContextTimeout(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	h, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"a"}, l.Keys())

	require.NoError(t, h.Unlock())
	assert.Empty(t, l.Keys())
}

func TestCloseWakesWaiters(t *testing.T) {
	l := newForTest(t)

	h, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(context.Background(), "a")
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		s := l.(*locker).shardFor("a")
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.entries["a"] != nil && s.entries["a"].refs == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, <-errCh, ErrClosed)
	assert.ErrorIs(t, l.Close(), ErrClosed)

	// 已持有的锁在关闭后仍可释放
	assert.NoError(t, h.Unlock())

	_, err = l.TryAcquire("b")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMaxKeys(t *testing.T) {
	l := newForTest(t, WithMaxKeys(2))
	defer func() { require.NoError(t, l.Close()) }()

	h1, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	h2, err := l.Acquire(context.Background(), "b")
	require.NoError(t, err)

	_, err = l.TryAcquire("c")
	assert.ErrorIs(t, err, ErrMaxKeysExceeded)

	require.NoError(t, h1.Unlock())
	h3, err := l.Acquire(context.Background(), "c")
	require.NoError(t, err)

	require.NoError(t, h2.Unlock())
	require.NoError(t, h3.Unlock())
}

func TestShardCountValidation(t *testing.T) {
	for _, n := range []int{0, -1, 3, 1 << 17} {
		_, err := New(WithShardCount(n))
		assert.ErrorIs(t, err, ErrInvalidShardCount, "shards=%d", n)
	}

	l := newForTest(t, WithShardCount(64))
	assert.Len(t, l.(*locker).shards, 64)
	require.NoError(t, l.Close())
}

func TestMutualExclusion(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	var (
		inside     atomic.Int32
		violations atomic.Int32
		wg         sync.WaitGroup
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h, err := l.Acquire(context.Background(), "shared")
				if !assert.NoError(t, err) {
					return
				}
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				inside.Add(-1)
				assert.NoError(t, h.Unlock())
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, violations.Load())
	assert.Zero(t, l.Len())
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	l := newForTest(t)
	defer func() { require.NoError(t, l.Close()) }()

	held := make([]Handle, 0, 8)
	for i := range 8 {
		h, err := l.TryAcquire(fmt.Sprintf("tenant-%d|", i))
		require.NoError(t, err)
		held = append(held, h)
	}
	assert.Equal(t, 8, l.Len())
	for _, h := range held {
		require.NoError(t, h.Unlock())
	}
}

func BenchmarkAcquireUnlockParallel(b *testing.B) {
	keys := make([]string, 64)
	for i := range keys {
		keys[i] = fmt.Sprintf("tenant-%d|", i)
	}
	l, err := New()
	if err != nil {
		b.Fatal(err)
	}
	defer l.Close()

	ctx := context.Background()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			h, err := l.Acquire(ctx, keys[i%len(keys)])
			if err == nil {
				_ = h.Unlock()
			}
			i++
		}
	})
}
