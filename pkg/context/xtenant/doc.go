// Package xtenant 在 context.Context 中显式传递调用方 grain 身份。
//
// grain 逻辑需要"当前租户"时，从 ctx 读取调用方 grain 地址并解码其租户段，
// 不依赖任何隐式的运行时状态。跨进程调用时，gRPC 拦截器把调用方 grain
// 写入 outgoing metadata，在服务端再还原到 ctx。
//
// # Context 操作
//
//	ctx, err := xtenant.WithGrain(ctx, self)
//	id, ok := xtenant.Grain(ctx)
//	tenant := xtenant.Tenant(ctx) // 无 grain 时为 null 租户
//
// # gRPC Metadata
//
//	x-grain-type     grain 类型
//	x-grain-key-bin  grain key 原始字节（二进制 metadata）
//
// 客户端：[GRPCUnaryClientInterceptor]、[GRPCStreamClientInterceptor]。
// 服务端：[GRPCUnaryServerInterceptor]、[GRPCStreamServerInterceptor]，
// 可用 [WithGRPCRequireGrain] 拒绝未携带 grain 的请求。
package xtenant
