package xguard

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

type tenantPair struct {
	source, target xtenantkey.ID
}

type decision struct {
	allowed bool
	expires time.Time
}

// CachingAuthorizer 缓存内层 Authorizer 的判定结果，按 (source, target) 区分。
// 出错的判定不缓存。ttl <= 0 时结果不过期，只按 LRU 淘汰。
type CachingAuthorizer struct {
	inner Authorizer
	ttl   time.Duration
	cache *lru.Cache[tenantPair, decision]
}

// NewCachingAuthorizer 创建 CachingAuthorizer。
func NewCachingAuthorizer(inner Authorizer, size int, ttl time.Duration) (*CachingAuthorizer, error) {
	if inner == nil {
		return nil, ErrNilAuthorizer
	}
	if size <= 0 {
		return nil, ErrInvalidCacheSize
	}
	cache, err := lru.New[tenantPair, decision](size)
	if err != nil {
		return nil, err
	}
	return &CachingAuthorizer{inner: inner, ttl: ttl, cache: cache}, nil
}

// IsAccessAuthorized 实现 Authorizer。
func (c *CachingAuthorizer) IsAccessAuthorized(ctx context.Context, source, target xtenantkey.ID) (bool, error) {
	key := tenantPair{source: source, target: target}
	if d, ok := c.cache.Get(key); ok {
		if d.expires.IsZero() || time.Now().Before(d.expires) {
			return d.allowed, nil
		}
		c.cache.Remove(key)
	}
	allowed, err := c.inner.IsAccessAuthorized(ctx, source, target)
	if err != nil {
		return false, err
	}
	d := decision{allowed: allowed}
	if c.ttl > 0 {
		d.expires = time.Now().Add(c.ttl)
	}
	c.cache.Add(key, d)
	return allowed, nil
}

// Forget 丢弃 source 到 target 的缓存判定。
func (c *CachingAuthorizer) Forget(source, target xtenantkey.ID) {
	c.cache.Remove(tenantPair{source: source, target: target})
}

// Purge 清空缓存。
func (c *CachingAuthorizer) Purge() {
	c.cache.Purge()
}

// Len 返回缓存的判定数。
func (c *CachingAuthorizer) Len() int {
	return c.cache.Len()
}

var _ Authorizer = (*CachingAuthorizer)(nil)
