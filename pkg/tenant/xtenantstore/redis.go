package xtenantstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xprovider"
)

// Redis hash 字段。
const (
	fieldData = "data"
	fieldETag = "etag"
)

// 启动检查默认值。
const (
	DefaultPingAttempts = 5
	DefaultPingDelay    = 200 * time.Millisecond
)

// KEYS[1] 记录 key；ARGV[1] 期望的 ETag；ARGV[2] 数据；ARGV[3] 新 ETag。
// 返回 {1} 表示成功，{0, 当前 ETag} 表示 ETag 不一致。
var writeScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'etag')
if not cur then cur = '' end
if cur ~= ARGV[1] then return {0, cur} end
redis.call('HSET', KEYS[1], 'data', ARGV[2], 'etag', ARGV[3])
return {1}
`)

// KEYS[1] 记录 key；ARGV[1] 期望的 ETag。返回值同 writeScript。
var clearScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'etag')
if not cur then cur = '' end
if cur ~= ARGV[1] then return {0, cur} end
redis.call('DEL', KEYS[1])
return {1}
`)

// RedisOption 配置 Redis 后端。
type RedisOption func(*Redis)

// WithPingAttempts 设置启动检查的最大尝试次数。
func WithPingAttempts(n uint) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.pingAttempts = n
		}
	}
}

// WithPingDelay 设置启动检查的重试间隔。
func WithPingDelay(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.pingDelay = d
		}
	}
}

// WithRedisLogger 设置日志记录器。
func WithRedisLogger(l xlog.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = l
	}
}

// WithBreaker 为读写操作加熔断。st.Name 为空时取 key 前缀。
// ETag 不一致与记录损坏不计为失败；st.IsSuccessful 非 nil 时以它为准。
func WithBreaker(st gobreaker.Settings) RedisOption {
	return func(r *Redis) {
		r.breakerSettings = &st
	}
}

// Redis 把 grain 状态存为 Redis hash。客户端由调用方管理。
type Redis struct {
	client       redis.UniversalClient
	prefix       string
	pingAttempts uint
	pingDelay    time.Duration
	logger       xlog.Logger

	breakerSettings *gobreaker.Settings
	breaker         *gobreaker.CircuitBreaker[struct{}]
}

// NewRedis 创建 Redis 后端，prefix 是 key 前缀，通常是租户 provider 名。
func NewRedis(client redis.UniversalClient, prefix string, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	r := &Redis{
		client:       client,
		prefix:       prefix,
		pingAttempts: DefaultPingAttempts,
		pingDelay:    DefaultPingDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = xlog.OrDefault(r.logger)
	if st := r.breakerSettings; st != nil {
		if st.Name == "" {
			st.Name = prefix
		}
		if st.IsSuccessful == nil {
			st.IsSuccessful = isBackendHealthy
		}
		r.breaker = gobreaker.NewCircuitBreaker[struct{}](*st)
	}
	return r, nil
}

// isBackendHealthy 报告 err 是否说明后端工作正常。
func isBackendHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, ErrETagMismatch) ||
		errors.Is(err, ErrCorruptRecord) ||
		errors.Is(err, context.Canceled)
}

// BreakerState 返回熔断器状态，未启用熔断时总是 StateClosed。
func (r *Redis) BreakerState() gobreaker.State {
	if r.breaker == nil {
		return gobreaker.StateClosed
	}
	return r.breaker.State()
}

func (r *Redis) guarded(fn func() error) error {
	if r.breaker == nil {
		return fn()
	}
	_, err := r.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("xtenantstore: redis %q unavailable: %w", r.prefix, err)
	}
	return err
}

// NewRedisFactory 返回共享 client、按租户 provider 名划分 key 空间的 Factory。
func NewRedisFactory(client redis.UniversalClient, opts ...RedisOption) xprovider.Factory[GrainStorage] {
	return func(_ context.Context, cfg xprovider.TenantConfig) (GrainStorage, error) {
		return NewRedis(client, cfg.TenantProviderName, opts...)
	}
}

// Key 返回记录在 Redis 中的 key。
func (r *Redis) Key(grainType string, id xgrain.GrainID) string {
	return r.prefix + "/" + grainType + "/" + string(id.Key)
}

// Participate 在存储服务阶段确认 Redis 可用。
func (r *Redis) Participate(lc xgrain.Lifecycle) {
	lc.Subscribe("xtenantstore redis "+r.prefix, xgrain.StageRuntimeStorageServices, xgrain.ObserverFuncs{
		Start: r.ping,
	})
}

func (r *Redis) ping(ctx context.Context) error {
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(r.pingAttempts),
		retry.Delay(r.pingDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn(ctx, "redis not ready", xlog.Provider(r.prefix), xlog.Count(int(n)+1), xlog.Err(err))
		}),
	).Do(func() error {
		return r.client.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("xtenantstore: redis %q not ready: %w", r.prefix, err)
	}
	return nil
}

func (r *Redis) ReadState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	if state == nil {
		return ErrNilState
	}
	var vals []any
	err := r.guarded(func() (err error) {
		vals, err = r.client.HMGet(ctx, r.Key(grainType, id), fieldData, fieldETag).Result()
		return err
	})
	if err != nil {
		return fmt.Errorf("xtenantstore: read %s: %w", grainType, err)
	}
	if vals[1] == nil {
		*state = GrainState{}
		return nil
	}
	etag, ok := vals[1].(string)
	if !ok {
		return fmt.Errorf("%w: etag of %s", ErrCorruptRecord, r.Key(grainType, id))
	}
	var data []byte
	if s, ok := vals[0].(string); ok {
		data = []byte(s)
	}
	*state = GrainState{Data: data, ETag: etag, RecordExists: true}
	return nil
}

func (r *Redis) WriteState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	if state == nil {
		return ErrNilState
	}
	etag := uuid.NewString()
	if err := r.eval(ctx, writeScript, grainType, id, state.ETag, state.Data, etag); err != nil {
		return err
	}
	state.ETag = etag
	state.RecordExists = true
	return nil
}

func (r *Redis) ClearState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	if state == nil {
		return ErrNilState
	}
	if err := r.eval(ctx, clearScript, grainType, id, state.ETag); err != nil {
		return err
	}
	*state = GrainState{}
	return nil
}

func (r *Redis) eval(ctx context.Context, script *redis.Script, grainType string, id xgrain.GrainID, expected string, args ...any) error {
	key := r.Key(grainType, id)
	var res []any
	err := r.guarded(func() (err error) {
		res, err = script.Run(ctx, r.client, []string{key}, append([]any{expected}, args...)...).Slice()
		return err
	})
	if err != nil {
		return fmt.Errorf("xtenantstore: %s: %w", key, err)
	}
	if len(res) == 0 {
		return fmt.Errorf("%w: empty script reply for %s", ErrCorruptRecord, key)
	}
	if ok, _ := res[0].(int64); ok == 1 {
		return nil
	}
	cur := ""
	if len(res) > 1 {
		cur, _ = res[1].(string)
	}
	return etagMismatch(grainType, string(id.Key), cur, expected)
}

var (
	_ GrainStorage                = (*Redis)(nil)
	_ xgrain.LifecycleParticipant = (*Redis)(nil)
)
