// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
// 使用 Builder（first-error-wins：遇到第一个配置错误后，Build 直接返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/silo.log", xlog.WithMaxSizeMB(100)).
//		Build()
//	defer cleanup()
//
// # 上下文注入
//
// 默认启用 [EnrichHandler]：ctx 中携带调用方 grain 时（见 xtenant 包），
// 自动追加 grain_type 与 tenant_id 字段，null 租户记为 NULL。
//
// # 全局 Logger
//
// [Default] 惰性初始化（stderr、Info、text），库内组件未注入 logger 时使用它。
// [SetDefault] 替换，[ResetDefault] 仅用于测试。
//
// # 派生 Logger
//
// [Logger.With] 与 [Logger.WithGroup] 返回的 logger 共享父级的 LevelVar，
// 动态级别变更同步生效。
package xlog
