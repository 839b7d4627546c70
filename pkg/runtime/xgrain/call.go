package xgrain

import "context"

// IncomingCallContext 描述一次到达目标 grain 的调用。
type IncomingCallContext interface {
	// SourceID 返回调用方 grain 地址，调用方不是 grain 时返回 false。
	SourceID() (GrainID, bool)

	// TargetID 返回被调用 grain 的地址。
	TargetID() GrainID

	// InterfaceName 返回被调用接口的全名。
	InterfaceName() string

	// MethodName 返回被调用方法名。
	MethodName() string

	// Invoke 继续调用链。
	Invoke(ctx context.Context) error
}

// IncomingCallFilter 拦截每一次到达的调用，返回错误即中止调用。
type IncomingCallFilter interface {
	Invoke(ctx context.Context, call IncomingCallContext) error
}

// IncomingCallFilterFunc 以函数实现 IncomingCallFilter。
type IncomingCallFilterFunc func(ctx context.Context, call IncomingCallContext) error

// Invoke 实现 IncomingCallFilter。
func (f IncomingCallFilterFunc) Invoke(ctx context.Context, call IncomingCallContext) error {
	return f(ctx, call)
}

// Call 是 IncomingCallContext 的简单实现，Handler 为调用终点。
type Call struct {
	Source    GrainID
	HasSource bool
	Target    GrainID
	Interface string
	Method    string
	Handler   func(ctx context.Context) error
}

// SourceID 实现 IncomingCallContext。
func (c *Call) SourceID() (GrainID, bool) { return c.Source, c.HasSource }

// TargetID 实现 IncomingCallContext。
func (c *Call) TargetID() GrainID { return c.Target }

// InterfaceName 实现 IncomingCallContext。
func (c *Call) InterfaceName() string { return c.Interface }

// MethodName 实现 IncomingCallContext。
func (c *Call) MethodName() string { return c.Method }

// Invoke 实现 IncomingCallContext。
func (c *Call) Invoke(ctx context.Context) error {
	if c.Handler == nil {
		return nil
	}
	return c.Handler(ctx)
}

// Dispatch 让调用依次经过 filters 后到达终点。
func Dispatch(ctx context.Context, call IncomingCallContext, filters ...IncomingCallFilter) error {
	if len(filters) == 0 {
		return call.Invoke(ctx)
	}
	return filters[0].Invoke(ctx, &chained{IncomingCallContext: call, rest: filters[1:]})
}

type chained struct {
	IncomingCallContext
	rest []IncomingCallFilter
}

func (c *chained) Invoke(ctx context.Context) error {
	return Dispatch(ctx, c.IncomingCallContext, c.rest...)
}
