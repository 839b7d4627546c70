package xmetrics

import "context"

// Kind 表示跨度类型。
type Kind int

const (
	KindInternal Kind = iota
	KindServer
	KindClient
)

// Status 表示观测结果状态。
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 表示观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 是跨度的创建参数。
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 是跨度结束时的结果，Status 为空时由 Err 推导。
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

// Span 表示一次观测跨度。
type Span interface {
	End(result Result)
}

// Observer 是统一观测接口。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 是空跨度。
type NoopSpan struct{}

func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测，保证返回非 nil 的 ctx 与 Span。
// observer 为 nil 时返回 NoopSpan。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
