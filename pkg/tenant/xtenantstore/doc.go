// Package xtenantstore 提供按租户隔离的 grain 状态存储。
//
// Storage 对外是一个普通的 GrainStorage，内部由 xprovider.Multiplexer
// 为每个租户创建独立的后端实例；租户由 grain key 的租户段决定。
//
// 内置两个后端：
//   - Memory：进程内存，ETag 使用 UUID
//   - Redis：每条状态存为一个 hash，key 为 <租户 provider 名>/<grain 类型>/<grain key>；
//     后端加入生命周期，在存储服务阶段以重试方式确认 Redis 可用
//
// PersistentState 以 JSON 编解码为 grain 提供类型化的状态访问。
package xtenantstore
