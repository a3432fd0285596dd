package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/xerrors"
)

type redisCache struct {
	base
	client *redis.Client
	logger clog.Logger
}

func newRedis(conn connector.RedisConnector, b base, o *options) (Cache, error) {
	client := conn.GetClient()
	if client == nil {
		return nil, xerrors.Wrap(ErrRedisRequired, "redis connector is not connected")
	}
	return &redisCache{base: b, client: client, logger: o.logger}, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrapf(err, "encode %s", key)
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl(ttl)).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) error {
	if err := checkDest(dest); err != nil {
		return err
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.observe(ctx, false)
		return xerrors.Wrapf(ErrMiss, "%s", key)
	}
	if err != nil {
		return xerrors.Wrapf(err, "get %s", key)
	}
	c.observe(ctx, true)

	if err := c.serializer.Unmarshal(data, dest); err != nil {
		// 通常是换了序列化格式，旧值按未命中处理
		c.logger.WarnContext(ctx, "drop undecodable entry", clog.String("key", key), clog.Error(err))
		_ = c.client.Del(ctx, c.key(key)).Err()
		return xerrors.Wrapf(ErrMiss, "%s: %v", key, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *redisCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 不关闭连接器持有的客户端
func (c *redisCache) Close() error {
	return nil
}
