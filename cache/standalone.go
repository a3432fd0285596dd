package cache

import (
	"context"
	"reflect"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

// memoryCache 进程内缓存
//
// 存放编码后的字节而不是原始对象，调用方修改读出的值不会影响缓存。
type memoryCache struct {
	base
	cache  *otter.Cache[string, []byte]
	logger clog.Logger
}

func newMemory(cfg *Config, b base, o *options) (Cache, error) {
	// 过期时间从写入开始计算，读取不续期，与 Redis TTL 语义一致
	c, err := otter.New(&otter.Options[string, []byte]{
		MaximumSize:      cfg.Capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](cfg.DefaultTTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "build otter cache")
	}
	return &memoryCache{base: b, cache: c, logger: o.logger}, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrapf(err, "encode %s", key)
	}
	k := c.key(key)
	c.cache.Set(k, data)
	if ttl > 0 && ttl != c.defaultTTL {
		c.cache.SetExpiresAfter(k, ttl)
	}
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest any) error {
	if err := checkDest(dest); err != nil {
		return err
	}
	data, ok := c.cache.GetIfPresent(c.key(key))
	c.observe(ctx, ok)
	if !ok {
		return xerrors.Wrapf(ErrMiss, "%s", key)
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		c.logger.WarnContext(ctx, "drop undecodable entry", clog.String("key", key), clog.Error(err))
		c.cache.Invalidate(c.key(key))
		return xerrors.Wrapf(ErrMiss, "%s: %v", key, err)
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.cache.Invalidate(c.key(key))
	return nil
}

func (c *memoryCache) Has(_ context.Context, key string) (bool, error) {
	_, ok := c.cache.GetIfPresent(c.key(key))
	return ok, nil
}

func (c *memoryCache) Close() error {
	c.cache.StopAllGoroutines()
	return nil
}

func checkDest(dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return xerrors.Wrapf(ErrInvalidDest, "got %T", dest)
	}
	return nil
}
