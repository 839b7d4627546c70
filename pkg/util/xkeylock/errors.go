package xkeylock

import "errors"

var (
	// ErrLockNotHeld 表示锁已被释放，Unlock 第二次及后续调用时返回。
	ErrLockNotHeld = errors.New("xkeylock: lock not held")

	// ErrLockOccupied 表示 TryAcquire 时锁已被其他持有者占用。
	ErrLockOccupied = errors.New("xkeylock: lock occupied")

	// ErrClosed 表示 Locker 已关闭。
	ErrClosed = errors.New("xkeylock: closed")

	// ErrNilContext 表示 Acquire 传入了 nil context。
	ErrNilContext = errors.New("xkeylock: nil context")

	// ErrMaxKeysExceeded 表示活跃 key 数量达到上限。
	ErrMaxKeysExceeded = errors.New("xkeylock: max keys exceeded")

	// ErrInvalidShardCount 表示分片数不是 [1, 65536] 内 2 的幂。
	ErrInvalidShardCount = errors.New("xkeylock: invalid shard count")
)
