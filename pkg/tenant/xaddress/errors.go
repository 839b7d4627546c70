package xaddress

import (
	"errors"
	"fmt"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

var (
	// ErrIdentityMismatch 匹配所有 *IdentityMismatchError。
	ErrIdentityMismatch = errors.New("xaddress: tenant identity mismatch")

	// ErrNotTenantEvent 表示订阅者收到了未经 Event 包装的事件。
	ErrNotTenantEvent = errors.New("xaddress: item was not published through the tenant stream API")
)

// IdentityMismatchError 表示流 key 显式携带的租户与 provider 的租户不一致。
type IdentityMismatchError struct {
	Stream    xgrain.StreamID
	Specified xtenantkey.ID
	Expected  xtenantkey.ID
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("xaddress: stream %s for tenant %q cannot be retrieved from a stream provider for tenant %q",
		e.Stream, e.Specified.String(), e.Expected.String())
}

// Is 匹配 ErrIdentityMismatch。
func (e *IdentityMismatchError) Is(target error) bool { return target == ErrIdentityMismatch }
