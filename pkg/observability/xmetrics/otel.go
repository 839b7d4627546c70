package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xmultitenant/pkg/context/xtenant"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xmultitenant/xmetrics"
	unknown                    = "unknown"

	MetricOperationTotal    = "xmultitenant.operation.total"
	MetricOperationDuration = "xmultitenant.operation.duration"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 配置 OTel Observer。
type Option func(*otelConfig)

func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer，未指定 provider 时使用 otel 全局 provider。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	total, err := meter.Int64Counter(MetricOperationTotal,
		metric.WithDescription("total operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	duration, err := meter.Float64Histogram(MetricOperationDuration,
		metric.WithDescription("operation duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &otelObserver{
		tracer:   cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:    total,
		duration: duration,
	}, nil
}

type otelObserver struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	component := orUnknown(opts.Component)
	operation := orUnknown(opts.Operation)

	attrs := make([]attribute.KeyValue, 0, 3+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String("component", component),
		attribute.String("operation", operation),
	)
	if _, ok := xtenant.Grain(ctx); ok {
		attrs = append(attrs, attribute.String(KeyTenant, xtenant.Tenant(ctx).String()))
	}
	attrs = append(attrs, toOTel(opts.Attrs)...)

	ctx, span := o.tracer.Start(ctx, operation,
		trace.WithSpanKind(spanKind(opts.Kind)),
		trace.WithAttributes(attrs...))

	return ctx, &otelSpan{
		span:      span,
		observer:  o,
		ctx:       ctx,
		component: component,
		operation: operation,
		start:     time.Now(),
	}
}

type otelSpan struct {
	span      trace.Span
	observer  *otelObserver
	ctx       context.Context
	component string
	operation string
	start     time.Time
	once      sync.Once
}

// End 幂等，多次调用只记录一次指标。
func (s *otelSpan) End(result Result) {
	s.once.Do(func() {
		status := result.Status
		if status == "" {
			status = StatusOK
			if result.Err != nil {
				status = StatusError
			}
		}
		if result.Err != nil {
			s.span.RecordError(result.Err)
		}
		if status == StatusError {
			msg := "operation failed"
			if result.Err != nil {
				msg = result.Err.Error()
			}
			s.span.SetStatus(codes.Error, msg)
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		if len(result.Attrs) > 0 {
			s.span.SetAttributes(toOTel(result.Attrs)...)
		}
		s.span.End()

		// 请求 ctx 取消后仍需记录失败与超时的指标
		mctx := context.WithoutCancel(s.ctx)
		set := metric.WithAttributes(
			attribute.String("component", s.component),
			attribute.String("operation", s.operation),
			attribute.String("status", string(status)),
		)
		s.observer.total.Add(mctx, 1, set)
		s.observer.duration.Record(mctx, time.Since(s.start).Seconds(), set)
	})
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func spanKind(k Kind) trace.SpanKind {
	switch k {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	default:
		return trace.SpanKindInternal
	}
}

func toOTel(attrs []Attr) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "" || a.Value == nil {
			continue
		}
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(a.Key, v))
		case bool:
			out = append(out, attribute.Bool(a.Key, v))
		case int:
			out = append(out, attribute.Int(a.Key, v))
		case int64:
			out = append(out, attribute.Int64(a.Key, v))
		case float64:
			out = append(out, attribute.Float64(a.Key, v))
		case time.Duration:
			out = append(out, attribute.Int64(a.Key, v.Nanoseconds()))
		default:
			out = append(out, attribute.String(a.Key, fmt.Sprint(v)))
		}
	}
	return out
}
