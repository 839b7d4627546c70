// Package context 提供上下文与身份传递相关的子包。
//
// 子包列表：
//   - xtenant: 在 context.Context 中携带调用方 grain，gRPC 元数据传播
//
// 设计原则：
//   - 调用方身份通过 context.Context 显式传递，不使用全局变量
//   - 提供拦截器自动注入/提取，减少业务代码侵入
package context
