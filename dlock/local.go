package dlock

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

// keyedMutex 进程内按键互斥，等待可被 ctx 取消
type keyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// slot refs 统计持有者与等待者，归零时回收
type slot struct {
	ch       chan struct{}
	refs     int
	lockedAt time.Time
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{slots: make(map[string]*slot)}
}

func (m *keyedMutex) acquire(ctx context.Context, key string, wait bool) (bool, error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	if wait {
		select {
		case s.ch <- struct{}{}:
		case <-ctx.Done():
			m.drop(key, s)
			return false, ctx.Err()
		}
	} else {
		select {
		case s.ch <- struct{}{}:
		default:
			m.drop(key, s)
			return false, nil
		}
	}

	m.mu.Lock()
	s.lockedAt = time.Now()
	m.mu.Unlock()
	return true, nil
}

// release 返回加锁时间
func (m *keyedMutex) release(key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		return time.Time{}, xerrors.Wrapf(ErrLockNotHeld, "key %s", key)
	}
	select {
	case <-s.ch:
	default:
		return time.Time{}, xerrors.Wrapf(ErrLockNotHeld, "key %s", key)
	}
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
	return s.lockedAt, nil
}

func (m *keyedMutex) drop(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

type localLocker struct {
	keys   *keyedMutex
	logger clog.Logger
	rec    *recorder
}

func newLocal(logger clog.Logger, rec *recorder) Locker {
	return &localLocker{keys: newKeyedMutex(), logger: logger, rec: rec}
}

func (l *localLocker) Lock(ctx context.Context, key string, _ ...LockOption) error {
	if _, err := l.keys.acquire(ctx, key, true); err != nil {
		l.rec.acquired(ctx, "error")
		return err
	}
	l.rec.acquired(ctx, "acquired")
	return nil
}

func (l *localLocker) TryLock(ctx context.Context, key string, _ ...LockOption) (bool, error) {
	ok, err := l.keys.acquire(ctx, key, false)
	if ok {
		l.rec.acquired(ctx, "acquired")
	} else {
		l.rec.acquired(ctx, "busy")
	}
	return ok, err
}

func (l *localLocker) Unlock(ctx context.Context, key string) error {
	since, err := l.keys.release(key)
	if err != nil {
		l.logger.WarnContext(ctx, "unlock without holding", clog.String("key", key))
		return err
	}
	l.rec.released(ctx, since)
	return nil
}

func (l *localLocker) Close() error {
	return nil
}
