package xlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	globalLogger atomic.Pointer[LoggerWithLevel]
	globalMu     sync.Mutex
)

// Default 返回全局 Logger，首次调用时惰性创建。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	// 默认参数不会出错
	logger, _, _ := New().Build()
	globalLogger.Store(&logger)
	return logger
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 重置为未初始化状态，仅用于测试。
func ResetDefault() {
	globalLogger.Store(nil)
}

// OrDefault 在 l 为 nil 时返回 Default()。
func OrDefault(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}

func globalLog(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.logWithSkip(ctx, level, msg, attrs, 1)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelInfo:
		l.Info(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelDebug, msg, attrs)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelError, msg, attrs)
}
