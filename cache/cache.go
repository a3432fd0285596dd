// Package cache 提供键值读缓存，值统一经 serializer 编码后存放。
//
// 两种驱动：
//   - memory：进程内 otter 缓存，按条目数淘汰
//   - redis：共享的 Redis，键带统一前缀
//
// 基本使用：
//
//	c, _ := cache.New(&cache.Config{Driver: cache.DriverRedis, Prefix: "nftledger:"},
//	    cache.WithRedisConnector(redisConn), cache.WithLogger(logger))
//
//	_ = c.Set(ctx, "kind:LAND", kind, time.Minute)
//
//	var got storage.Kind
//	if err := c.Get(ctx, "kind:LAND", &got); xerrors.Is(err, cache.ErrMiss) {
//	    // 回源
//	}
package cache

import (
	"context"
	"time"

	"github.com/ceyewan/nftledger/cache/serializer"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/xerrors"
)

// 指标名称
const (
	MetricRequestsTotal = "nftledger_cache_requests_total"
)

// 指标标签值
const (
	resultHit  = "hit"
	resultMiss = "miss"
)

// Cache 键值缓存
type Cache interface {
	// Set 写入 value，ttl <= 0 时使用 Config.DefaultTTL
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get 读取到 dest（指针），不存在时返回 ErrMiss
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// New 根据 Config.Driver 创建缓存
func New(cfg *Config, opts ...Option) (Cache, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, xerrors.Wrap(ErrInvalidConfig, err.Error())
	}
	requests, err := o.meter.Counter(MetricRequestsTotal, "缓存读取次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create requests counter")
	}
	base := base{
		serializer: s,
		prefix:     cfg.Prefix,
		defaultTTL: cfg.DefaultTTL,
		requests:   requests,
		driver:     cfg.Driver,
	}

	switch cfg.Driver {
	case DriverMemory:
		return newMemory(cfg, base, o)
	default:
		if o.redis == nil {
			return nil, ErrRedisRequired
		}
		return newRedis(o.redis, base, o)
	}
}

// base 两种驱动共享的编码、前缀与统计
type base struct {
	serializer serializer.Serializer
	prefix     string
	defaultTTL time.Duration
	requests   metrics.Counter
	driver     string
}

func (b *base) key(key string) string {
	return b.prefix + key
}

func (b *base) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return b.defaultTTL
	}
	return ttl
}

func (b *base) observe(ctx context.Context, hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	b.requests.Inc(ctx, metrics.L("driver", b.driver), metrics.L("result", result))
}
