package xguard

import (
	"context"

	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/observability/xmetrics"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

// Option 配置 Guard。
type Option func(*Guard)

// WithAuthorizer 设置 Authorizer，默认 DenyAll()。
func WithAuthorizer(a Authorizer) Option {
	return func(g *Guard) {
		if a != nil {
			g.authorizer = a
		}
	}
}

// WithLogger 设置日志记录器，默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// WithObserver 设置观测器。
func WithObserver(o xmetrics.Observer) Option {
	return func(g *Guard) {
		if o != nil {
			g.observer = o
		}
	}
}

// Guard 执行跨租户访问检查。
type Guard struct {
	authorizer Authorizer
	logger     xlog.Logger
	observer   xmetrics.Observer
}

// NewGuard 创建 Guard。
func NewGuard(opts ...Option) *Guard {
	g := &Guard{authorizer: DenyAll(), observer: xmetrics.NoopObserver{}}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.logger = xlog.OrDefault(g.logger)
	return g
}

// CheckAccess 检查 source 租户能否访问 target 租户。
// 同一租户（包括都是 null）直接放行；拒绝时返回 *UnauthorizedAccessError。
func (g *Guard) CheckAccess(ctx context.Context, source, target xtenantkey.ID) (err error) {
	if source == target {
		return nil
	}
	ctx, span := xmetrics.Start(ctx, g.observer, xmetrics.SpanOptions{
		Component: "xguard",
		Operation: "access.check",
		Attrs: []xmetrics.Attr{
			xmetrics.String("tenant.source", source.String()),
			xmetrics.String("tenant.target", target.String()),
		},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	ok, authErr := g.authorizer.IsAccessAuthorized(ctx, source, target)
	if authErr == nil && ok {
		return nil
	}
	err = &UnauthorizedAccessError{Source: source, Target: target, Err: authErr}
	g.logger.Warn(ctx, "cross-tenant access denied", xlog.Err(err))
	return err
}

// CallFilter 是检查跨租户调用的 xgrain.IncomingCallFilter。
type CallFilter struct {
	guard     *Guard
	separator CallSeparator
}

// NewCallFilter 创建 CallFilter。guard 为 nil 时使用 NewGuard()，
// separator 为 nil 时使用 DefaultSeparator()。
func NewCallFilter(guard *Guard, separator CallSeparator) *CallFilter {
	if guard == nil {
		guard = NewGuard()
	}
	if separator == nil {
		separator = DefaultSeparator()
	}
	return &CallFilter{guard: guard, separator: separator}
}

// Check 检查 call 是否允许，不调用目标。
func (f *CallFilter) Check(ctx context.Context, call xgrain.IncomingCallContext) error {
	if !f.separator.IsTenantSeparatedCall(call) {
		return nil
	}
	source, ok := call.SourceID()
	if !ok || source.Type.IsClient() || source.Type.IsSystemTarget() {
		return nil
	}
	target := call.TargetID()
	if xtenantkey.SameTenant(source.Key, target.Key) {
		return nil
	}
	return f.guard.CheckAccess(ctx, xtenantkey.DecodeTenant(source.Key), xtenantkey.DecodeTenant(target.Key))
}

// Invoke 实现 xgrain.IncomingCallFilter。
func (f *CallFilter) Invoke(ctx context.Context, call xgrain.IncomingCallContext) error {
	if err := f.Check(ctx, call); err != nil {
		return err
	}
	return call.Invoke(ctx)
}

var _ xgrain.IncomingCallFilter = (*CallFilter)(nil)
