package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志轮转默认值。
const (
	DefaultMaxSizeMB  = 500
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
)

// ErrEmptyFilename 表示 SetRotation 的文件名为空。
var ErrEmptyFilename = errors.New("xlog: empty rotation filename")

// ReplaceAttrFunc 在输出前替换属性，返回空 Key 的 Attr 即移除该属性。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// RotationOption 配置文件轮转。
type RotationOption func(*lumberjack.Logger)

// WithMaxSizeMB 设置单个文件大小上限。
func WithMaxSizeMB(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxSize = n }
}

// WithMaxBackups 设置保留的备份数量。
func WithMaxBackups(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxBackups = n }
}

// WithMaxAgeDays 设置备份保留天数。
func WithMaxAgeDays(n int) RotationOption {
	return func(l *lumberjack.Logger) { l.MaxAge = n }
}

// WithCompress 设置是否 gzip 压缩备份。
func WithCompress(enable bool) RotationOption {
	return func(l *lumberjack.Logger) { l.Compress = enable }
}

// Builder 日志配置构建器。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	enrich      bool
	replaceAttr ReplaceAttrFunc
	rotator     io.Closer
	onError     func(error)
	attrs       []slog.Attr
	err         error
}

// New 创建构建器：stderr、Info、text、启用 enrich。
func New() *Builder {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: lv,
		format:   "text",
		enrich:   true,
	}
}

func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
	}
	return b
}

func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置 text 或 json，空值视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = f
	default:
		b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 控制是否从 ctx 注入 grain_type 与 tenant_id。
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enrich = enable
	return b
}

func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetOnError 设置 Handler 写入失败时的回调，回调在日志热路径上同步执行。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetAttrs 设置每条日志都携带的固定属性，如 silo 名。
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetRotation 输出到按大小轮转的文件。
func (b *Builder) SetRotation(filename string, opts ...RotationOption) *Builder {
	if strings.TrimSpace(filename) == "" {
		b.setErr(ErrEmptyFilename)
		return b
	}
	lj := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(lj)
		}
	}
	if lj.MaxSize <= 0 {
		b.setErr(fmt.Errorf("xlog: rotation max size must be positive, got %d", lj.MaxSize))
		return b
	}
	b.rotator = lj
	b.output = lj
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build 构建 Logger，返回的 cleanup 关闭轮转文件，可重复调用。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var h slog.Handler
	if b.format == "json" {
		h = slog.NewJSONHandler(b.output, opts)
	} else {
		h = slog.NewTextHandler(b.output, opts)
	}
	if b.enrich {
		eh, err := NewEnrichHandler(h)
		if err != nil {
			return nil, nil, err
		}
		h = eh
	}
	if len(b.attrs) > 0 {
		h = h.WithAttrs(b.attrs)
	}

	logger := &xlogger{
		handler:    h,
		levelVar:   b.levelVar,
		addSource:  b.addSource,
		onError:    b.onError,
		errorCount: new(atomic.Uint64),
	}

	var once sync.Once
	rotator := b.rotator
	cleanup := func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
	return logger, cleanup, nil
}
