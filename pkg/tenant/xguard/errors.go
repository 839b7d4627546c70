package xguard

import (
	"errors"
	"fmt"

	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

var (
	// ErrUnauthorizedAccess 匹配所有 *UnauthorizedAccessError。
	ErrUnauthorizedAccess = errors.New("xguard: unauthorized cross-tenant access")

	// ErrNilResolver 表示 TargetResolver 为 nil。
	ErrNilResolver = errors.New("xguard: nil target resolver")

	// ErrNilAuthorizer 表示被包装的 Authorizer 为 nil。
	ErrNilAuthorizer = errors.New("xguard: nil authorizer")

	// ErrInvalidCacheSize 表示缓存容量不是正数。
	ErrInvalidCacheSize = errors.New("xguard: cache size must be positive")
)

// UnauthorizedAccessError 表示 Source 租户访问 Target 租户被拒绝。
// Err 非 nil 时表示 Authorizer 出错，按拒绝处理。
type UnauthorizedAccessError struct {
	Source xtenantkey.ID
	Target xtenantkey.ID
	Err    error
}

func (e *UnauthorizedAccessError) Error() string {
	msg := fmt.Sprintf("xguard: tenant %q attempted to access tenant %q", e.Source.String(), e.Target.String())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is 匹配 ErrUnauthorizedAccess。
func (e *UnauthorizedAccessError) Is(target error) bool { return target == ErrUnauthorizedAccess }

func (e *UnauthorizedAccessError) Unwrap() error { return e.Err }
