package dlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/xerrors"
)

// 仅当令牌匹配时删除或续期
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

type redisLocker struct {
	client *redis.Client
	cfg    *Config
	logger clog.Logger
	rec    *recorder
	keys   *keyedMutex

	mu    sync.Mutex
	locks map[string]*redisLease
}

type redisLease struct {
	token string
	ttl   time.Duration
	stop  chan struct{}
	done  chan struct{}
}

func newRedis(conn connector.RedisConnector, cfg *Config, logger clog.Logger, rec *recorder) (Locker, error) {
	client := conn.GetClient()
	if client == nil {
		return nil, xerrors.Wrap(ErrConnectorNil, "redis connector is not connected")
	}
	return &redisLocker{
		client: client,
		cfg:    cfg,
		logger: logger,
		rec:    rec,
		keys:   newKeyedMutex(),
		locks:  make(map[string]*redisLease),
	}, nil
}

func (l *redisLocker) Lock(ctx context.Context, key string, opts ...LockOption) error {
	lo := applyLockOptions(l.cfg.DefaultTTL, opts)
	if _, err := l.keys.acquire(ctx, key, true); err != nil {
		l.rec.acquired(ctx, "error")
		return err
	}

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.acquire(ctx, key, lo.ttl)
		if err != nil || ok {
			return err
		}
		select {
		case <-ctx.Done():
			_, _ = l.keys.release(key)
			l.rec.acquired(ctx, "error")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error) {
	lo := applyLockOptions(l.cfg.DefaultTTL, opts)
	ok, err := l.keys.acquire(ctx, key, false)
	if err != nil || !ok {
		l.rec.acquired(ctx, "busy")
		return false, err
	}
	ok, err = l.acquire(ctx, key, lo.ttl)
	if !ok && err == nil {
		_, _ = l.keys.release(key)
		l.rec.acquired(ctx, "busy")
	}
	return ok, err
}

// acquire 在已持有本地锁的前提下尝试一次 SET NX；失败或出错时本地锁由调用方处理，
// 出错时这里直接释放本地锁
func (l *redisLocker) acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.cfg.Prefix+key, token, ttl).Result()
	if err != nil {
		_, _ = l.keys.release(key)
		l.rec.acquired(ctx, "error")
		return false, xerrors.Wrapf(err, "acquire lock %s", key)
	}
	if !ok {
		return false, nil
	}

	lease := &redisLease{token: token, ttl: ttl, stop: make(chan struct{}), done: make(chan struct{})}
	l.mu.Lock()
	l.locks[key] = lease
	l.mu.Unlock()
	go l.watchdog(key, lease)

	l.rec.acquired(ctx, "acquired")
	l.logger.DebugContext(ctx, "lock acquired", clog.String("key", key), clog.Duration("ttl", ttl))
	return true, nil
}

func (l *redisLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	lease, ok := l.locks[key]
	delete(l.locks, key)
	l.mu.Unlock()
	if !ok {
		return xerrors.Wrapf(ErrLockNotHeld, "key %s", key)
	}

	close(lease.stop)
	<-lease.done

	since, _ := l.keys.release(key)
	l.rec.released(ctx, since)

	n, err := releaseScript.Run(ctx, l.client, []string{l.cfg.Prefix + key}, lease.token).Int64()
	if err != nil {
		return xerrors.Wrapf(err, "release lock %s", key)
	}
	if n == 0 {
		return xerrors.Wrapf(ErrOwnershipLost, "key %s", key)
	}
	l.logger.DebugContext(ctx, "lock released", clog.String("key", key))
	return nil
}

// watchdog 每 ttl/3 续期一次，直到 Unlock 或所有权丢失
func (l *redisLocker) watchdog(key string, lease *redisLease) {
	defer close(lease.done)

	interval := max(lease.ttl/3, 100*time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-lease.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := renewScript.Run(ctx, l.client, []string{l.cfg.Prefix + key}, lease.token, lease.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			l.logger.Warn("lock renew failed", clog.String("key", key), clog.Error(err))
			continue
		}
		if n == 0 {
			l.logger.Error("lock ownership lost", clog.String("key", key))
			return
		}
	}
}

// Close 停止所有看门狗，远端锁随租期自然过期
func (l *redisLocker) Close() error {
	l.mu.Lock()
	leases := l.locks
	l.locks = make(map[string]*redisLease)
	l.mu.Unlock()

	for _, lease := range leases {
		close(lease.stop)
		<-lease.done
	}
	return nil
}
