package xkeylock

import (
	"context"
	"io"
)

// Handle 表示一次成功的锁获取。
type Handle interface {
	// Unlock 释放锁。第一次调用返回 nil，后续调用返回 [ErrLockNotHeld]。
	Unlock() error

	// Key 返回锁的 key，Unlock 之后仍可调用。
	Key() string
}

// Locker 提供基于 key 的进程内互斥锁，所有方法并发安全。
type Locker interface {
	io.Closer

	// Acquire 阻塞式获取锁，等待期间响应 ctx。
	// ctx 为 nil 时返回 [ErrNilContext]，Locker 关闭后返回 [ErrClosed]。
	//
	// 锁不可重入，同一 goroutine 对同一 key 重复 Acquire 会一直等待到 ctx 结束。
	Acquire(ctx context.Context, key string) (Handle, error)

	// TryAcquire 非阻塞获取锁，锁被占用时返回 (nil, [ErrLockOccupied])。
	TryAcquire(key string) (Handle, error)

	// Len 返回当前活跃 key 数量的瞬时快照。
	Len() int

	// Keys 返回当前活跃 key 列表，仅用于调试，不保证跨分片原子性。
	Keys() []string
}

// New 创建 Locker，配置无效时返回错误。
func New(opts ...Option) (Locker, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return newLocker(o), nil
}
