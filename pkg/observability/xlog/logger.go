package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

const maxStackSize = 64 * 1024

type xlogger struct {
	handler    slog.Handler
	levelVar   *slog.LevelVar
	addSource  bool
	onError    func(error)
	errorCount *atomic.Uint64 // 派生 logger 共享
}

//go:noinline
func (l *xlogger) logWithSkip(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int) {
	if !l.handler.Enabled(ctx, level) {
		return
	}
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// Callers → logWithSkip → log/globalLog → Info 等 → 业务代码
		runtime.Callers(3+extraSkip, pcs[:])
		pc = pcs[0]
	}
	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l.logWithSkip(ctx, level, msg, attrs, 1)
}

// handleError 计数并回调，回调 panic 不外溢。
func (l *xlogger) handleError(err error) {
	l.errorCount.Add(1)
	if l.onError == nil {
		return
	}
	defer func() {
		if recover() != nil {
			l.errorCount.Add(1)
		}
	}()
	l.onError(err)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	all := make([]slog.Attr, 0, len(attrs)+1)
	all = append(all, attrs...)
	all = append(all, slog.String(KeyStack, string(buf[:n])))
	l.logWithSkip(ctx, slog.LevelError, msg, all, 0)
}

func (l *xlogger) derive(h slog.Handler) *xlogger {
	return &xlogger{
		handler:    h,
		levelVar:   l.levelVar,
		addSource:  l.addSource,
		onError:    l.onError,
		errorCount: l.errorCount,
	}
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回 logger 内部写入失败的次数。
func ErrorCount(l Logger) uint64 {
	if xl, ok := l.(*xlogger); ok {
		return xl.errorCount.Load()
	}
	return 0
}
