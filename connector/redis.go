package connector

import (
	"context"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

type redisConnector struct {
	*base
	cfg *RedisConfig

	mu     sync.RWMutex
	client *redis.Client
}

// NewRedis 创建 Redis 连接器
//
// 设置了 WithTracerProvider 时，客户端的每条命令都会产生一个 span。
func NewRedis(cfg *RedisConfig, opts ...Option) (RedisConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "redis config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	b, err := newBase("redis", cfg.Name, o)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	if o.tracerProvider != nil {
		if err := redisotel.InstrumentTracing(client, redisotel.WithTracerProvider(o.tracerProvider)); err != nil {
			_ = client.Close()
			return nil, xerrors.Wrapf(err, "redis connector[%s]: instrument tracing", cfg.Name)
		}
	}

	return &redisConnector{base: b, cfg: cfg, client: client}, nil
}

// Connect Ping 服务器确认可用
func (c *redisConnector) Connect(ctx context.Context) (err error) {
	client := c.GetClient()
	if client == nil {
		return c.clientNil()
	}
	defer func() { c.observeConnect(ctx, err) }()

	c.logger.InfoContext(ctx, "connecting", clog.String("addr", c.cfg.Addr))
	if err := client.Ping(ctx).Err(); err != nil {
		return c.connectErr(ctx, err, "ping")
	}
	c.logger.InfoContext(ctx, "connected", clog.String("addr", c.cfg.Addr))
	return nil
}

// Close 关闭客户端
func (c *redisConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if err != nil {
		c.logger.Error("close failed", clog.Error(err))
		return err
	}
	c.logger.Info("closed", clog.String("addr", c.cfg.Addr))
	return nil
}

// HealthCheck Ping 服务器
func (c *redisConnector) HealthCheck(ctx context.Context) error {
	client := c.GetClient()
	if client == nil {
		return c.clientNil()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return c.healthErr(ctx, err)
	}
	c.healthy.Store(true)
	return nil
}

// GetClient 返回 Redis 客户端，Close 之后为 nil
func (c *redisConnector) GetClient() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
