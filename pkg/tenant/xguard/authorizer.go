package xguard

import (
	"context"
	"strings"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

//go:generate mockgen -destination=mock_authorizer_test.go -package=xguard_test . Authorizer

// Authorizer 判定 source 租户能否访问 target 租户。
// 只在两者不同的时候被调用；可能做 I/O，需要响应 ctx。
type Authorizer interface {
	IsAccessAuthorized(ctx context.Context, source, target xtenantkey.ID) (bool, error)
}

// AuthorizerFunc 以函数实现 Authorizer。
type AuthorizerFunc func(ctx context.Context, source, target xtenantkey.ID) (bool, error)

// IsAccessAuthorized 实现 Authorizer。
func (f AuthorizerFunc) IsAccessAuthorized(ctx context.Context, source, target xtenantkey.ID) (bool, error) {
	return f(ctx, source, target)
}

// DenyAll 拒绝所有跨租户访问，是默认的 Authorizer。
func DenyAll() Authorizer {
	return AuthorizerFunc(func(context.Context, xtenantkey.ID, xtenantkey.ID) (bool, error) {
		return false, nil
	})
}

// AllowAll 允许所有跨租户访问。
func AllowAll() Authorizer {
	return AuthorizerFunc(func(context.Context, xtenantkey.ID, xtenantkey.ID) (bool, error) {
		return true, nil
	})
}

// CallSeparator 判定一次入站调用是否受租户隔离约束。
type CallSeparator interface {
	IsTenantSeparatedCall(call xgrain.IncomingCallContext) bool
}

// SeparatorFunc 以函数实现 CallSeparator。
type SeparatorFunc func(call xgrain.IncomingCallContext) bool

// IsTenantSeparatedCall 实现 CallSeparator。
func (f SeparatorFunc) IsTenantSeparatedCall(call xgrain.IncomingCallContext) bool {
	return f(call)
}

// NewInterfacePrefixSeparator 返回的 CallSeparator 把接口名以任一 prefix 开头的调用
// 视为不受隔离约束，其余调用都受约束。
func NewInterfacePrefixSeparator(prefixes ...string) CallSeparator {
	exempt := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			exempt = append(exempt, p)
		}
	}
	return SeparatorFunc(func(call xgrain.IncomingCallContext) bool {
		name := call.InterfaceName()
		for _, p := range exempt {
			if strings.HasPrefix(name, p) {
				return false
			}
		}
		return true
	})
}

// DefaultSeparator 豁免运行时内部接口（xgrain.SystemInterfacePrefix）。
func DefaultSeparator() CallSeparator {
	return NewInterfacePrefixSeparator(xgrain.SystemInterfacePrefix)
}
