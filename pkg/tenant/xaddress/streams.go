package xaddress

import (
	"context"
	"fmt"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xguard"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

// Event 是经租户流 API 发布的事件。
type Event[T any] struct {
	Value T
}

func (Event[T]) tenantEvent() {}

type tenantEvent interface{ tenantEvent() }

// IsTenantEvent 报告 item 是否经租户流 API 发布。
func IsTenantEvent(item any) bool {
	_, ok := item.(tenantEvent)
	return ok
}

// StreamProvider 在一个租户内访问流。零值不可用。
type StreamProvider struct {
	provider xgrain.StreamProvider
	tenant   xtenantkey.ID
}

// NewStreamProvider 返回 tenant 的 StreamProvider。
func NewStreamProvider(provider xgrain.StreamProvider, tenant xtenantkey.ID) StreamProvider {
	return StreamProvider{provider: provider, tenant: tenant}
}

// StreamProviderForGrain 返回与 self 同一租户的 StreamProvider。
func StreamProviderForGrain(provider xgrain.StreamProvider, self xgrain.GrainID) StreamProvider {
	return NewStreamProvider(provider, TenantOf(self))
}

// StreamProviderForTenantAs 返回 target 租户的 StreamProvider，self 所在租户须经 guard 授权。
func StreamProviderForTenantAs(ctx context.Context, guard *xguard.Guard, provider xgrain.StreamProvider, self xgrain.GrainID, target xtenantkey.ID) (StreamProvider, error) {
	if err := checkAccess(ctx, guard, self, target); err != nil {
		return StreamProvider{}, err
	}
	return NewStreamProvider(provider, target), nil
}

// Tenant 返回绑定的租户。
func (sp StreamProvider) Tenant() xtenantkey.ID { return sp.tenant }

// Name 返回底层 provider 名。
func (sp StreamProvider) Name() string { return sp.provider.Name() }

// GetStream 返回租户流。id.Key 可以是租户内 key，也可以是同一租户的限定 key；
// 显式携带其他租户时返回 *IdentityMismatchError。
func GetStream[T any](sp StreamProvider, id xgrain.StreamID) (Stream[T], error) {
	specified, key := xtenantkey.Split(id.Key)
	if seg := xtenantkey.Segment(id.Key); len(seg) > 0 && string(seg) != sp.tenant.Segment() {
		return Stream[T]{}, &IdentityMismatchError{Stream: id, Specified: specified, Expected: sp.tenant}
	}
	qualified := xgrain.StreamID{Namespace: id.Namespace, Key: xtenantkey.AppendEncode(nil, sp.tenant, key)}
	return Stream[T]{s: sp.provider.Stream(qualified), tenant: sp.tenant}, nil
}

// GetStreamByKey 等价于 GetStream(sp, xgrain.NewStreamID(namespace, key))。
func GetStreamByKey[T any](sp StreamProvider, namespace, key string) (Stream[T], error) {
	return GetStream[T](sp, xgrain.NewStreamID(namespace, key))
}

// Stream 是类型化的租户流。
type Stream[T any] struct {
	s      xgrain.Stream
	tenant xtenantkey.ID
}

// ID 返回限定后的流地址。
func (s Stream[T]) ID() xgrain.StreamID { return s.s.ID() }

// Tenant 返回流所属租户。
func (s Stream[T]) Tenant() xtenantkey.ID { return s.tenant }

// KeyWithinTenant 返回流的租户内 key。
func (s Stream[T]) KeyWithinTenant() string { return StreamKeyWithinTenant(s.s.ID()) }

// OnNext 发布一条事件。
func (s Stream[T]) OnNext(ctx context.Context, item T) error {
	return s.s.Publish(ctx, Event[T]{Value: item})
}

// OnNextBatch 依次发布 items，遇到第一个错误即返回。
func (s Stream[T]) OnNextBatch(ctx context.Context, items []T) error {
	for i, item := range items {
		if err := s.OnNext(ctx, item); err != nil {
			return fmt.Errorf("xaddress: batch item %d: %w", i, err)
		}
	}
	return nil
}

// Subscribe 订阅事件，返回的函数用于取消订阅。
func (s Stream[T]) Subscribe(ctx context.Context, handler func(ctx context.Context, item T) error) (func(), error) {
	if handler == nil {
		return nil, xgrain.ErrNilHandler
	}
	return s.s.Subscribe(ctx, func(ctx context.Context, item any) error {
		ev, ok := item.(Event[T])
		if !ok {
			return fmt.Errorf("%w: got %T on %s", ErrNotTenantEvent, item, s.s.ID())
		}
		return handler(ctx, ev.Value)
	})
}
