package dlock

import (
	"context"
	"errors"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/xerrors"
)

type etcdLocker struct {
	client  *clientv3.Client
	session *concurrency.Session
	cfg     *Config
	logger  clog.Logger
	rec     *recorder
	keys    *keyedMutex

	mu    sync.Mutex
	locks map[string]*etcdLease
}

type etcdLease struct {
	mutex *concurrency.Mutex
	// own 非空表示该锁使用了独立 TTL 的 session，释放时一并关闭
	own *concurrency.Session
}

func newEtcd(conn connector.EtcdConnector, cfg *Config, logger clog.Logger, rec *recorder) (Locker, error) {
	client := conn.GetClient()
	if client == nil {
		return nil, xerrors.Wrap(ErrConnectorNil, "etcd connector is not connected")
	}
	session, err := concurrency.NewSession(client, concurrency.WithTTL(ttlSeconds(cfg.DefaultTTL)))
	if err != nil {
		return nil, xerrors.Wrap(err, "create etcd session")
	}
	return &etcdLocker{
		client:  client,
		session: session,
		cfg:     cfg,
		logger:  logger,
		rec:     rec,
		keys:    newKeyedMutex(),
		locks:   make(map[string]*etcdLease),
	}, nil
}

func ttlSeconds(d time.Duration) int {
	return max(int(d/time.Second), 1)
}

func (l *etcdLocker) Lock(ctx context.Context, key string, opts ...LockOption) error {
	if _, err := l.keys.acquire(ctx, key, true); err != nil {
		l.rec.acquired(ctx, "error")
		return err
	}
	_, err := l.lock(ctx, key, false, opts)
	return err
}

func (l *etcdLocker) TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error) {
	ok, err := l.keys.acquire(ctx, key, false)
	if err != nil || !ok {
		l.rec.acquired(ctx, "busy")
		return false, err
	}
	return l.lock(ctx, key, true, opts)
}

// lock 调用前已持有本地锁，未成功时释放它
func (l *etcdLocker) lock(ctx context.Context, key string, try bool, opts []LockOption) (bool, error) {
	lo := applyLockOptions(l.cfg.DefaultTTL, opts)

	lease := &etcdLease{}
	session := l.session
	if lo.ttl != l.cfg.DefaultTTL {
		s, err := concurrency.NewSession(l.client, concurrency.WithTTL(ttlSeconds(lo.ttl)))
		if err != nil {
			_, _ = l.keys.release(key)
			l.rec.acquired(ctx, "error")
			return false, xerrors.Wrap(err, "create etcd session")
		}
		session, lease.own = s, s
	}
	lease.mutex = concurrency.NewMutex(session, l.cfg.Prefix+key)

	var err error
	if try {
		err = lease.mutex.TryLock(ctx)
	} else {
		err = lease.mutex.Lock(ctx)
	}
	if err != nil {
		_, _ = l.keys.release(key)
		if lease.own != nil {
			_ = lease.own.Close()
		}
		if errors.Is(err, concurrency.ErrLocked) {
			l.rec.acquired(ctx, "busy")
			return false, nil
		}
		l.rec.acquired(ctx, "error")
		return false, xerrors.Wrapf(err, "acquire lock %s", key)
	}

	l.mu.Lock()
	l.locks[key] = lease
	l.mu.Unlock()

	l.rec.acquired(ctx, "acquired")
	l.logger.DebugContext(ctx, "lock acquired", clog.String("key", key))
	return true, nil
}

func (l *etcdLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	lease, ok := l.locks[key]
	delete(l.locks, key)
	l.mu.Unlock()
	if !ok {
		return xerrors.Wrapf(ErrLockNotHeld, "key %s", key)
	}

	err := lease.mutex.Unlock(ctx)
	if lease.own != nil {
		_ = lease.own.Close()
	}
	since, _ := l.keys.release(key)
	l.rec.released(ctx, since)
	if err != nil {
		return xerrors.Wrapf(err, "release lock %s", key)
	}
	l.logger.DebugContext(ctx, "lock released", clog.String("key", key))
	return nil
}

// Close 关闭 session，其租约下的锁随之释放
func (l *etcdLocker) Close() error {
	l.mu.Lock()
	for key, lease := range l.locks {
		if lease.own != nil {
			_ = lease.own.Close()
		}
		delete(l.locks, key)
	}
	l.mu.Unlock()
	return l.session.Close()
}
