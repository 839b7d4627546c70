package xprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

var (
	// ErrInvalidConfig 是所有配置错误的哨兵，配合 errors.Is 使用。
	ErrInvalidConfig = errors.New("xprovider: invalid config")

	// ErrEmptyName 表示 provider 名为空。
	ErrEmptyName = errors.New("xprovider: empty provider name")

	// ErrNilFactory 表示 Factory 为 nil。
	ErrNilFactory = errors.New("xprovider: nil factory")

	// ErrReplayTimeout 表示租户 provider 未能在 InitTimeout 内完成生命周期重放。
	ErrReplayTimeout = errors.New("xprovider: tenant provider init timeout")

	// ErrNotParticipating 表示需要加入生命周期的 provider 在 Participate 之前被访问。
	ErrNotParticipating = errors.New("xprovider: tenant provider accessed before the multiplexer participated in the lifecycle")

	// ErrClosed 表示 Multiplexer 已关闭。
	ErrClosed = errors.New("xprovider: multiplexer closed")
)

// ConfigError 描述一个无效的配置项。
type ConfigError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("xprovider: invalid %s for provider %q: %s", e.Field, e.Provider, e.Reason)
}

// Unwrap 返回 ErrInvalidConfig。
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// ReplayTimeoutError 表示某租户的 provider 启动超时。
// 同时匹配 ErrReplayTimeout 与 context.DeadlineExceeded。
type ReplayTimeoutError struct {
	Provider string
	Tenant   xtenantkey.ID
	Timeout  time.Duration
}

func (e *ReplayTimeoutError) Error() string {
	return fmt.Sprintf("xprovider: provider %q for tenant %s did not start within %s", e.Provider, e.Tenant, e.Timeout)
}

// Is 匹配 ErrReplayTimeout。
func (e *ReplayTimeoutError) Is(target error) bool { return target == ErrReplayTimeout }

// Unwrap 返回 context.DeadlineExceeded。
func (e *ReplayTimeoutError) Unwrap() error { return context.DeadlineExceeded }
