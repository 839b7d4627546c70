package xlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omeyang/xmultitenant/pkg/context/xtenant"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

// ErrNilHandler 表示 NewEnrichHandler 的 base 为 nil。
var ErrNilHandler = errors.New("xlog: base handler is nil")

// EnrichHandler 从 ctx 中的调用方 grain 注入 grain_type 与 tenant_id。
// ctx 中没有 grain 时原样透传。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 包装 base。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 按 slog 约定先 Clone record 再追加属性。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := xtenant.Grain(ctx); ok {
		r = r.Clone()
		r.AddAttrs(
			slog.String(KeyGrainType, string(id.Type)),
			Tenant(xtenantkey.DecodeTenant(id.Key)),
		)
	}
	return h.base.Handle(ctx, r)
}

func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
