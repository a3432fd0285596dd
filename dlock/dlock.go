// Package dlock 为变更操作提供按键串行执行的锁。
//
// 三种驱动：
//   - local：进程内，同一个键的持有者依次执行
//   - redis：SET NX PX + 看门狗续期，Lua 脚本校验令牌后释放
//   - etcd：concurrency.Mutex，租约由 Session 自动续期
//
// 所有驱动都先在进程内按键排队，再去竞争远端锁，因此同一进程中的并发调用
// 会等待而不是失败。
//
//	locker, _ := dlock.New(&dlock.Config{Driver: dlock.DriverRedis},
//	    dlock.WithRedisConnector(redisConn), dlock.WithLogger(logger))
//	if err := locker.Lock(ctx, "kind:LAND"); err != nil {
//	    return err
//	}
//	defer locker.Unlock(ctx, "kind:LAND")
package dlock

import (
	"context"

	"github.com/ceyewan/nftledger/xerrors"
)

// Locker 按键加锁
type Locker interface {
	// Lock 阻塞直到获得锁，ctx 取消时返回 ctx.Err()
	Lock(ctx context.Context, key string, opts ...LockOption) error

	// TryLock 尝试一次，锁被占用时返回 false, nil
	TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error)

	// Unlock 释放锁，未持有时返回 ErrLockNotHeld
	Unlock(ctx context.Context, key string) error

	// Close 释放 Locker 自己创建的资源，不关闭连接器
	Close() error
}

// New 按 Config.Driver 创建 Locker
func New(cfg *Config, opts ...Option) (Locker, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	rec, err := newRecorder(o.meter, cfg.Driver)
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case DriverRedis:
		if o.redis == nil {
			return nil, xerrors.Wrap(ErrConnectorNil, "redis driver requires WithRedisConnector")
		}
		return newRedis(o.redis, cfg, o.logger, rec)
	case DriverEtcd:
		if o.etcd == nil {
			return nil, xerrors.Wrap(ErrConnectorNil, "etcd driver requires WithEtcdConnector")
		}
		return newEtcd(o.etcd, cfg, o.logger, rec)
	default:
		return newLocal(o.logger, rec), nil
	}
}
