package xaddress

import (
	"context"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xguard"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

// TenantOf 返回 grain 所属的租户。
func TenantOf(id xgrain.GrainID) xtenantkey.ID {
	return xtenantkey.DecodeTenant(id.Key)
}

// KeyWithinTenant 返回 grain 的租户内 key。
func KeyWithinTenant(id xgrain.GrainID) string {
	return xtenantkey.DecodeKeyWithinTenant(id.Key)
}

// StreamTenantOf 返回流所属的租户。
func StreamTenantOf(id xgrain.StreamID) xtenantkey.ID {
	return xtenantkey.DecodeTenant(id.Key)
}

// StreamKeyWithinTenant 返回流的租户内 key。
func StreamKeyWithinTenant(id xgrain.StreamID) string {
	return xtenantkey.DecodeKeyWithinTenant(id.Key)
}

// GrainFactory 在一个租户内寻址 grain。零值不可用。
type GrainFactory struct {
	factory xgrain.GrainFactory
	tenant  xtenantkey.ID
}

// ForTenant 返回 tenant 的 GrainFactory。
func ForTenant(factory xgrain.GrainFactory, tenant xtenantkey.ID) GrainFactory {
	return GrainFactory{factory: factory, tenant: tenant}
}

// ForGrain 返回与 self 同一租户的 GrainFactory。
func ForGrain(factory xgrain.GrainFactory, self xgrain.GrainID) GrainFactory {
	return ForTenant(factory, TenantOf(self))
}

// ForTenantAs 返回 target 租户的 GrainFactory，self 所在租户须经 guard 授权。
// guard 为 nil 时使用 xguard.NewGuard()。
func ForTenantAs(ctx context.Context, guard *xguard.Guard, factory xgrain.GrainFactory, self xgrain.GrainID, target xtenantkey.ID) (GrainFactory, error) {
	if err := checkAccess(ctx, guard, self, target); err != nil {
		return GrainFactory{}, err
	}
	return ForTenant(factory, target), nil
}

// Tenant 返回绑定的租户。
func (f GrainFactory) Tenant() xtenantkey.ID { return f.tenant }

// GrainID 返回租户内 key 对应的 grain 地址。
func (f GrainFactory) GrainID(grainType xgrain.GrainType, keyWithinTenant string) xgrain.GrainID {
	return xgrain.GrainID{Type: grainType, Key: xtenantkey.AppendEncode(nil, f.tenant, keyWithinTenant)}
}

// GetGrain 返回租户内 key 对应的 grain 引用。
func (f GrainFactory) GetGrain(grainType xgrain.GrainType, keyWithinTenant string) xgrain.GrainRef {
	return f.factory.GetGrain(f.GrainID(grainType, keyWithinTenant))
}

func checkAccess(ctx context.Context, guard *xguard.Guard, self xgrain.GrainID, target xtenantkey.ID) error {
	if guard == nil {
		guard = xguard.NewGuard()
	}
	return guard.CheckAccess(ctx, TenantOf(self), target)
}
