package xtenant

import (
	"context"
	"slices"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

type grainKey struct{}

// WithGrain 把调用方 grain 地址写入 ctx。key 字节会被复制。
func WithGrain(ctx context.Context, id xgrain.GrainID) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if id.Type == "" {
		return nil, ErrEmptyGrainType
	}
	id.Key = slices.Clone(id.Key)
	return context.WithValue(ctx, grainKey{}, id), nil
}

// Grain 返回 ctx 中的调用方 grain 地址。
func Grain(ctx context.Context) (xgrain.GrainID, bool) {
	if ctx == nil {
		return xgrain.GrainID{}, false
	}
	id, ok := ctx.Value(grainKey{}).(xgrain.GrainID)
	return id, ok
}

// RequireGrain 返回调用方 grain 地址，不存在时返回 [ErrMissingGrain]。
func RequireGrain(ctx context.Context) (xgrain.GrainID, error) {
	id, ok := Grain(ctx)
	if !ok {
		return xgrain.GrainID{}, ErrMissingGrain
	}
	return id, nil
}

// Tenant 返回调用方 grain 所属租户，ctx 中没有 grain 时返回 null 租户。
func Tenant(ctx context.Context) xtenantkey.ID {
	id, ok := Grain(ctx)
	if !ok {
		return xtenantkey.Null()
	}
	return xtenantkey.DecodeTenant(id.Key)
}
