// Package xguard 阻止未经授权的跨租户 grain 调用。
//
// CallFilter 是一个 xgrain.IncomingCallFilter：
//
//  1. CallSeparator 判定调用不受租户隔离约束时直接放行（默认放行运行时内部接口）
//  2. 调用方不是 grain（外部客户端、系统目标或没有来源）时放行
//  3. 调用方与目标属于同一租户时放行，不询问 Authorizer
//  4. 否则询问 Authorizer，拒绝时返回 *UnauthorizedAccessError，调用不会到达目标
//
// Authorizer 默认拒绝所有跨租户访问。授权不具对称性：
// A 访问 B 与 B 访问 A 分别判定。
//
// UnaryServerInterceptor 与 StreamServerInterceptor 把同样的检查用于 gRPC 入口，
// 调用方 grain 由 xtenant 的 metadata 传递，拒绝映射为 codes.PermissionDenied。
package xguard
