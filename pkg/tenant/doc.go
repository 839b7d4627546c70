// Package tenant 提供 grain 运行时的租户隔离层。
//
// 子包列表：
//   - xtenantkey: 租户限定 key 的编码与解码
//   - xlifecycle: 生命周期事件的记录与重放
//   - xprovider: 按租户延迟创建 provider 的多路复用器
//   - xtenantstore: 多租户 grain 存储与示例后端
//   - xguard: 跨租户访问控制
//   - xaddress: 租户内的 grain 寻址与流隔离
package tenant
