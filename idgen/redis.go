package idgen

import (
	"context"
	"math"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/xerrors"
)

// redisAllocator 在 Redis 中保存计数器
//
// 计数器以 int64 存储，因此 Floor 与上限都受 math.MaxInt64 约束。
type redisAllocator struct {
	redis     connector.RedisConnector
	cfg       *Config
	logger    clog.Logger
	allocated metrics.Counter
}

// NewRedis 创建 Redis 分配器
//
//	alloc, _ := idgen.NewRedis(redisConn, &idgen.Config{Key: "nft:token_id", Floor: 1},
//	    idgen.WithLogger(logger))
func NewRedis(conn connector.RedisConnector, cfg *Config, opts ...Option) (Allocator, error) {
	if conn == nil {
		return nil, xerrors.WithCode(ErrConnectorNil, "redis_connector_nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Floor > math.MaxInt64 {
		return nil, xerrors.WithCode(ErrInvalidInput, "floor_out_of_range")
	}

	o := applyOptions(opts)
	allocated, err := o.meter.Counter(MetricAllocatedTotal, "已分配的标识符数量")
	if err != nil {
		return nil, xerrors.Wrap(err, "create allocated counter")
	}

	return &redisAllocator{
		redis:     conn,
		cfg:       cfg,
		logger:    o.logger.With(clog.String("component", "allocator"), clog.String("driver", "redis")),
		allocated: allocated,
	}, nil
}

func (a *redisAllocator) client() (*redis.Client, error) {
	client := a.redis.GetClient()
	if client == nil {
		return nil, xerrors.WithCode(ErrConnectorNil, "redis_client_nil")
	}
	return client, nil
}

// Peek 读取计数器，不存在时返回 Floor
func (a *redisAllocator) Peek(ctx context.Context) (uint64, error) {
	client, err := a.client()
	if err != nil {
		return 0, err
	}
	v, err := client.Get(ctx, a.cfg.Key).Uint64()
	if xerrors.Is(err, redis.Nil) {
		return a.cfg.Floor, nil
	}
	if err != nil {
		return 0, xerrors.Wrapf(err, "redis get %s", a.cfg.Key)
	}
	return v, nil
}

// Advance 在一个 MULTI/EXEC 中执行 SETNX floor 与 INCRBY n
func (a *redisAllocator) Advance(ctx context.Context, n uint64) (uint64, error) {
	if n == 0 {
		return 0, xerrors.Wrap(ErrInvalidInput, "advance by zero")
	}
	if n > math.MaxInt64 {
		return 0, xerrors.WithCode(xerrors.Wrapf(ErrExhausted, "advance %d exceeds int64", n), CodeExhausted)
	}
	client, err := a.client()
	if err != nil {
		return 0, err
	}

	var incr *redis.IntCmd
	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, a.cfg.Key, a.cfg.Floor, 0)
		incr = pipe.IncrBy(ctx, a.cfg.Key, int64(n))
		return nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "overflow") {
			return 0, xerrors.WithCode(xerrors.Wrapf(ErrExhausted, "%s: advance %d", a.cfg.Key, n), CodeExhausted)
		}
		a.logger.ErrorContext(ctx, "advance failed", clog.String("key", a.cfg.Key), clog.Error(err))
		return 0, xerrors.Wrapf(err, "redis incrby %s", a.cfg.Key)
	}

	next := uint64(incr.Val())
	first := next - n
	a.allocated.Add(ctx, float64(n), metrics.L("driver", "redis"))
	a.logger.DebugContext(ctx, "advanced", clog.Uint64("first", first), clog.Uint64("next", next))
	return first, nil
}
