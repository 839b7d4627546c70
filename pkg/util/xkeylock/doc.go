// Package xkeylock 提供基于 key 的进程内互斥锁表。
//
// 用于按 key 串行化"首次创建"类操作，例如按租户段串行化租户 provider 的构造：
// 同一 key 的构造互斥，不同 key 之间互不阻塞，不存在全局锁。
//
// # 特性
//
//   - Context 支持：Acquire 在等待期间响应 ctx 取消与超时
//   - TryAcquire：非阻塞获取，锁被占用时返回 [ErrLockOccupied]
//   - Handle 语义：Unlock 幂等（首次返回 nil，后续返回 [ErrLockNotHeld]）
//   - 分片 map：默认 32 分片，分片由 xxhash 选择
//   - 条目按引用计数回收，空闲 key 不占内存
//   - 空字符串是合法 key（空租户段即 null 租户）
//   - Close() 拒绝新请求并唤醒所有等待者，已持有的锁不受影响
package xkeylock
