package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

type locker struct {
	shards   []shard
	mask     uint64
	maxKeys  int64
	closed   atomic.Bool
	keyCount atomic.Int64
	done     chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry 的 slot 是容量为 1 的 channel：写入成功即持有锁，读出即释放。
// refs 统计持有者与等待者，归零时从分片中删除。
type entry struct {
	slot chan struct{}
	refs int32
}

type handle struct {
	l        *locker
	key      string
	e        *entry
	released atomic.Bool
}

func newLocker(o options) *locker {
	shards := make([]shard, o.shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*entry)
	}
	return &locker{
		shards:  shards,
		mask:    uint64(o.shardCount - 1),
		maxKeys: int64(o.maxKeys),
		done:    make(chan struct{}),
	}
}

func (l *locker) shardFor(key string) *shard {
	return &l.shards[xxhash.Sum64String(key)&l.mask]
}

// ref 取得 key 对应的条目并增加引用。
func (l *locker) ref(key string) (*entry, error) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		if l.maxKeys > 0 {
			for {
				cur := l.keyCount.Load()
				if cur >= l.maxKeys {
					return nil, ErrMaxKeysExceeded
				}
				if l.keyCount.CompareAndSwap(cur, cur+1) {
					break
				}
			}
		} else {
			l.keyCount.Add(1)
		}
		e = &entry{slot: make(chan struct{}, 1)}
		s.entries[key] = e
	}
	e.refs++
	return e, nil
}

func (l *locker) unref(key string, e *entry) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
		l.keyCount.Add(-1)
	}
}

func (l *locker) Acquire(ctx context.Context, key string) (Handle, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := l.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.slot <- struct{}{}:
		return &handle{l: l, key: key, e: e}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	case <-l.done:
		l.unref(key, e)
		return nil, ErrClosed
	}
}

func (l *locker) TryAcquire(key string) (Handle, error) {
	e, err := l.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.slot <- struct{}{}:
		return &handle{l: l, key: key, e: e}, nil
	default:
		l.unref(key, e)
		return nil, ErrLockOccupied
	}
}

func (l *locker) Len() int {
	return int(max(l.keyCount.Load(), 0))
}

func (l *locker) Keys() []string {
	keys := make([]string, 0, l.Len())
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

func (l *locker) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(l.done)
	return nil
}

func (h *handle) Unlock() error {
	if !h.released.CompareAndSwap(false, true) {
		return ErrLockNotHeld
	}
	<-h.e.slot
	h.l.unref(h.key, h.e)
	return nil
}

func (h *handle) Key() string {
	return h.key
}

var (
	_ Locker = (*locker)(nil)
	_ Handle = (*handle)(nil)
)
