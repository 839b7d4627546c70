package xprovider

import (
	"fmt"
	"time"

	"github.com/omeyang/xmultitenant/pkg/config/xconf"
	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/observability/xmetrics"
	"github.com/omeyang/xmultitenant/pkg/util/xkeylock"
)

// 默认值与取值范围。
const (
	DefaultInitTimeout     = 20 * time.Second
	MinInitTimeout         = 1 * time.Second
	MaxInitTimeout         = 600 * time.Second
	DefaultNullTenantLabel = "Null"
)

// Options 是可从配置文件加载的 Multiplexer 选项。
type Options struct {
	// InitTimeout 限制单个租户 provider 的生命周期重放时长。
	InitTimeout time.Duration

	// NullTenantLabel 是 null 租户在 TenantConfig 中使用的标签。
	NullTenantLabel string
}

// DefaultOptions 返回默认选项。
func DefaultOptions() Options {
	return Options{InitTimeout: DefaultInitTimeout, NullTenantLabel: DefaultNullTenantLabel}
}

// Validate 检查取值范围，失败时返回 *ConfigError。
func (o Options) Validate(name string) error {
	if o.InitTimeout < MinInitTimeout || o.InitTimeout > MaxInitTimeout {
		return &ConfigError{
			Provider: name,
			Field:    "init timeout",
			Reason: fmt.Sprintf("%g seconds falls outside the valid range of [%g..%g] seconds",
				o.InitTimeout.Seconds(), MinInitTimeout.Seconds(), MaxInitTimeout.Seconds()),
		}
	}
	return nil
}

// fileOptions 是 storage.<name> 段的结构，指针区分缺省与零值。
type fileOptions struct {
	InitTimeoutSeconds *float64 `koanf:"init_timeout_seconds"`
	NullTenantLabel    *string  `koanf:"null_tenant_label"`
}

// LoadOptions 从 cfg 的 storage.<name> 段读取选项，缺省项取默认值。
func LoadOptions(cfg xconf.Config, name string) (Options, error) {
	opts := DefaultOptions()
	if cfg == nil {
		return opts, nil
	}
	path := "storage." + name
	if !cfg.Exists(path) {
		return opts, nil
	}
	var fo fileOptions
	if err := cfg.Unmarshal(path, &fo); err != nil {
		return Options{}, &ConfigError{Provider: name, Field: path, Reason: err.Error()}
	}
	if fo.InitTimeoutSeconds != nil {
		opts.InitTimeout = time.Duration(*fo.InitTimeoutSeconds * float64(time.Second))
	}
	if fo.NullTenantLabel != nil {
		opts.NullTenantLabel = *fo.NullTenantLabel
	}
	if err := opts.Validate(name); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Option 配置 Multiplexer。
type Option func(*config)

type config struct {
	opts     Options
	logger   xlog.Logger
	observer xmetrics.Observer
	locker   xkeylock.Locker
}

// WithOptions 整体替换 Options。
func WithOptions(o Options) Option {
	return func(c *config) {
		c.opts = o
	}
}

// WithInitTimeout 设置租户 provider 的启动超时。
func WithInitTimeout(d time.Duration) Option {
	return func(c *config) {
		c.opts.InitTimeout = d
	}
}

// WithNullTenantLabel 设置 null 租户的标签。
func WithNullTenantLabel(label string) Option {
	return func(c *config) {
		c.opts.NullTenantLabel = label
	}
}

// WithLogger 设置日志记录器，默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithObserver 设置观测器。
func WithObserver(o xmetrics.Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// WithLocker 使用外部的 key 锁，Multiplexer 关闭时不会关闭它。
func WithLocker(l xkeylock.Locker) Option {
	return func(c *config) {
		c.locker = l
	}
}
