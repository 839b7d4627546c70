package xprovider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/observability/xmetrics"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xlifecycle"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
	"github.com/omeyang/xmultitenant/pkg/util/xkeylock"
)

// TenantConfig 是传给 Factory 的租户上下文。
type TenantConfig struct {
	// Tenant 是租户 id。
	Tenant xtenantkey.ID

	// TenantLabel 是租户字符串，null 租户为 Options.NullTenantLabel。
	TenantLabel string

	// ProviderName 是 Multiplexer 的名称。
	ProviderName string

	// TenantProviderName 是 "<TenantLabel>_<ProviderName>"，TenantLabel 为空时等于 ProviderName。
	TenantProviderName string
}

// Factory 为一个租户创建 provider。
type Factory[P any] func(ctx context.Context, cfg TenantConfig) (P, error)

type entry[P any] struct {
	tenant   xtenantkey.ID
	provider P
}

// Multiplexer 为每个租户惰性创建一个 P 并缓存。
type Multiplexer[P any] struct {
	name       string
	factory    Factory[P]
	opts       Options
	logger     xlog.Logger
	observer   xmetrics.Observer
	locker     xkeylock.Locker
	ownsLocker bool

	// providers: 租户段 -> *entry[P]
	providers sync.Map
	recorder  atomic.Pointer[xlifecycle.Recorder]
	closed    atomic.Bool
}

// New 创建 Multiplexer，选项无效时返回 *ConfigError。
func New[P any](name string, factory Factory[P], opts ...Option) (*Multiplexer[P], error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if factory == nil {
		return nil, ErrNilFactory
	}
	c := config{opts: DefaultOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if err := c.opts.Validate(name); err != nil {
		return nil, err
	}
	m := &Multiplexer[P]{
		name:     name,
		factory:  factory,
		opts:     c.opts,
		logger:   xlog.OrDefault(c.logger),
		observer: c.observer,
		locker:   c.locker,
	}
	if m.observer == nil {
		m.observer = xmetrics.NoopObserver{}
	}
	if m.locker == nil {
		l, err := xkeylock.New()
		if err != nil {
			return nil, fmt.Errorf("xprovider: create locker: %w", err)
		}
		m.locker = l
		m.ownsLocker = true
	}
	return m, nil
}

// Name 返回 provider 名。
func (m *Multiplexer[P]) Name() string { return m.name }

// Options 返回生效的选项。
func (m *Multiplexer[P]) Options() Options { return m.opts }

// Participate 加入宿主生命周期，必须在宿主启动前调用。重复调用被忽略。
func (m *Multiplexer[P]) Participate(lc xgrain.Lifecycle) {
	ctx := context.Background()
	m.logger.Info(ctx, "multitenant provider participating", xlog.Provider(m.name))
	if m.recorder.Load() != nil {
		m.logger.Warn(ctx, "multitenant provider already participating", xlog.Provider(m.name))
		return
	}
	rec, err := xlifecycle.NewRecorder(lc,
		xlifecycle.WithLogger(m.logger),
		xlifecycle.WithObserver(m.observer),
		xlifecycle.WithName(m.name),
	)
	if err != nil {
		m.logger.Error(ctx, "multitenant provider cannot participate", xlog.Provider(m.name), xlog.Err(err))
		return
	}
	m.recorder.CompareAndSwap(nil, rec)
}

// Get 返回 tenant 的 provider，必要时创建。
func (m *Multiplexer[P]) Get(ctx context.Context, tenant xtenantkey.ID) (P, error) {
	var zero P
	key := tenant.Segment()
	if p, ok := m.load(key); ok {
		return p, nil
	}
	if m.closed.Load() {
		return zero, ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	h, err := m.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, xkeylock.ErrClosed) {
			return zero, ErrClosed
		}
		return zero, fmt.Errorf("xprovider: wait for tenant %s: %w", tenant, err)
	}
	defer func() { _ = h.Unlock() }()

	if p, ok := m.load(key); ok {
		return p, nil
	}
	p, err := m.create(ctx, tenant)
	if err != nil {
		return zero, err
	}
	m.providers.Store(key, &entry[P]{tenant: tenant, provider: p})
	return p, nil
}

// GetForKey 返回限定 key 所属租户的 provider。
func (m *Multiplexer[P]) GetForKey(ctx context.Context, qualifiedKey []byte) (P, error) {
	return m.Get(ctx, xtenantkey.DecodeTenant(qualifiedKey))
}

// Tenants 返回已缓存 provider 的租户，按编码段排序。
func (m *Multiplexer[P]) Tenants() []xtenantkey.ID {
	var ids []xtenantkey.ID
	m.providers.Range(func(_, v any) bool {
		ids = append(ids, v.(*entry[P]).tenant)
		return true
	})
	slices.SortFunc(ids, func(a, b xtenantkey.ID) int {
		return strings.Compare(a.Segment(), b.Segment())
	})
	return ids
}

// Len 返回已缓存 provider 的数量。
func (m *Multiplexer[P]) Len() int {
	n := 0
	m.providers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close 停止创建新的租户 provider。已缓存的 provider 仍可通过 Get 取得。
func (m *Multiplexer[P]) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if m.ownsLocker {
		return m.locker.Close()
	}
	return nil
}

func (m *Multiplexer[P]) load(key string) (P, bool) {
	if v, ok := m.providers.Load(key); ok {
		return v.(*entry[P]).provider, true
	}
	var zero P
	return zero, false
}

func (m *Multiplexer[P]) tenantConfig(tenant xtenantkey.ID) TenantConfig {
	label, ok := tenant.Value()
	if !ok {
		label = m.opts.NullTenantLabel
	}
	name := m.name
	if label != "" {
		name = label + "_" + m.name
	}
	return TenantConfig{Tenant: tenant, TenantLabel: label, ProviderName: m.name, TenantProviderName: name}
}

func (m *Multiplexer[P]) create(ctx context.Context, tenant xtenantkey.ID) (p P, err error) {
	var zero P
	cfg := m.tenantConfig(tenant)
	ctx, span := xmetrics.Start(ctx, m.observer, xmetrics.SpanOptions{
		Component: "xprovider",
		Operation: "provider.create",
		Attrs:     []xmetrics.Attr{xmetrics.Provider(m.name), xmetrics.Tenant(tenant)},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	m.logger.Info(ctx, "creating tenant provider", xlog.Provider(cfg.TenantProviderName), xlog.Tenant(tenant))
	p, err = m.factory(ctx, cfg)
	if err != nil {
		return zero, fmt.Errorf("xprovider: create %q: %w", cfg.TenantProviderName, err)
	}

	participant, ok := any(p).(xgrain.LifecycleParticipant)
	if !ok {
		return p, nil
	}
	rec := m.recorder.Load()
	if rec == nil {
		return zero, fmt.Errorf("%w: %q", ErrNotParticipating, cfg.TenantProviderName)
	}
	replayer, err := xlifecycle.NewReplayer(rec,
		xlifecycle.WithLogger(m.logger),
		xlifecycle.WithObserver(m.observer),
		xlifecycle.WithName(cfg.TenantProviderName),
	)
	if err != nil {
		return zero, fmt.Errorf("xprovider: create %q: %w", cfg.TenantProviderName, err)
	}
	participant.Participate(replayer)

	m.logger.Info(ctx, "starting tenant provider",
		xlog.Provider(cfg.TenantProviderName), xlog.Tenant(tenant), xlog.Duration(m.opts.InitTimeout))
	start := time.Now()
	if err := m.replay(ctx, replayer, cfg); err != nil {
		replayer.Close()
		m.logger.Error(ctx, "tenant provider failed to start",
			xlog.Provider(cfg.TenantProviderName), xlog.Tenant(tenant), xlog.Err(err))
		return zero, err
	}
	m.logger.Info(ctx, "started tenant provider",
		xlog.Provider(cfg.TenantProviderName), xlog.Tenant(tenant), xlog.Duration(time.Since(start)))
	return p, nil
}

// replay 在 InitTimeout 内完成重放。超时后不再等待重放协程，
// 它会在订阅观察到 ctx 结束后自行退出。
func (m *Multiplexer[P]) replay(ctx context.Context, r *xlifecycle.Replayer, cfg TenantConfig) error {
	rctx, cancel := context.WithTimeout(ctx, m.opts.InitTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Replay(rctx) }()

	timeout := &ReplayTimeoutError{Provider: cfg.TenantProviderName, Tenant: cfg.Tenant, Timeout: m.opts.InitTimeout}
	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil && errors.Is(rctx.Err(), context.DeadlineExceeded) {
			return errors.Join(timeout, err)
		}
		return err
	case <-rctx.Done():
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("xprovider: start %q: %w", cfg.TenantProviderName, err)
		}
		return timeout
	}
}
