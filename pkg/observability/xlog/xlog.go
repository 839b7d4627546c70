package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口。
//
// 所有方法都需要 context.Context，EnrichHandler 从中提取调用方 grain 与租户。
// 只接受 slog.Attr，避免隐式 key-value 转换。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 记录带当前 goroutine 调用栈的错误日志。
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger。
	WithGroup(name string) Logger
}

// Leveler 动态级别控制。
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合 Logger 与 Leveler，Build 返回此接口。
type LoggerWithLevel interface {
	Logger
	Leveler
}
