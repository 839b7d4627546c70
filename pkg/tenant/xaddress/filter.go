package xaddress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// FilterOption 配置 StreamFilter。
type FilterOption func(*StreamFilter)

// WithFilterLogger 设置日志记录器，默认使用 xlog.Default()。
func WithFilterLogger(l xlog.Logger) FilterOption {
	return func(f *StreamFilter) {
		f.logger = l
	}
}

// WithSeparatedStreams 限定受检查的流，默认检查所有流。
func WithSeparatedStreams(separated func(id xgrain.StreamID) bool) FilterOption {
	return func(f *StreamFilter) {
		f.separated = separated
	}
}

// StreamFilter 丢弃租户流上未经 Event 包装的事件，并以 error 级别记录。
type StreamFilter struct {
	logger    xlog.Logger
	separated func(id xgrain.StreamID) bool
}

// NewStreamFilter 创建 StreamFilter。
func NewStreamFilter(opts ...FilterOption) *StreamFilter {
	f := &StreamFilter{}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.logger = xlog.OrDefault(f.logger)
	return f
}

// ShouldDeliver 实现 xgrain.StreamFilter。
func (f *StreamFilter) ShouldDeliver(ctx context.Context, id xgrain.StreamID, item any) bool {
	if f.separated != nil && !f.separated(id) {
		return true
	}
	if IsTenantEvent(item) {
		return true
	}
	f.logger.Error(ctx, "tenant-unaware stream API used",
		slog.String("stream", id.String()),
		slog.String("item_type", fmt.Sprintf("%T", item)),
		slog.String("stream_tenant", StreamTenantOf(id).String()),
	)
	return false
}

var _ xgrain.StreamFilter = (*StreamFilter)(nil)
