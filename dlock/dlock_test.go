package dlock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/testkit"
	"github.com/ceyewan/nftledger/xerrors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want error
	}{
		{name: "nil config is local", cfg: nil},
		{name: "local", cfg: &Config{Driver: DriverLocal}},
		{name: "unsupported driver", cfg: &Config{Driver: "zookeeper"}, want: ErrInvalidConfig},
		{name: "redis without connector", cfg: &Config{Driver: DriverRedis}, want: ErrConnectorNil},
		{name: "etcd without connector", cfg: &Config{Driver: DriverEtcd}, want: ErrConnectorNil},
		{name: "etcd sub-second ttl", cfg: &Config{Driver: DriverEtcd, DefaultTTL: time.Millisecond}, want: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locker, err := New(tt.cfg)
			if tt.want != nil {
				assert.True(t, xerrors.Is(err, tt.want), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, locker.Close())
		})
	}
}

// exerciseLocker 各驱动共有的语义
func exerciseLocker(t *testing.T, locker Locker) {
	t.Helper()
	ctx := testkit.NewContext(t, 10*time.Second)
	key := "kind:" + testkit.NewID()

	require.NoError(t, locker.Lock(ctx, key))

	ok, err := locker.TryLock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not get the lock")

	other, err := locker.TryLock(ctx, key+":other")
	require.NoError(t, err)
	assert.True(t, other, "different keys do not contend")
	require.NoError(t, locker.Unlock(ctx, key+":other"))

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, locker.Lock(waitCtx, key), context.DeadlineExceeded)

	require.NoError(t, locker.Unlock(ctx, key))
	assert.True(t, xerrors.Is(locker.Unlock(ctx, key), ErrLockNotHeld))

	ok, err = locker.TryLock(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, locker.Unlock(ctx, key))
}

// exerciseMutualExclusion 同一进程内的并发调用排队执行
func exerciseMutualExclusion(t *testing.T, locker Locker) {
	t.Helper()
	ctx := testkit.NewContext(t, 30*time.Second)
	key := "serial:" + testkit.NewID()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		total   int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := locker.Lock(ctx, key); err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			total++
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			if err := locker.Unlock(ctx, key); err != nil {
				t.Errorf("unlock: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Equal(t, 8, total)
}

func TestLocalLocker(t *testing.T) {
	locker, err := New(&Config{Driver: DriverLocal},
		WithLogger(testkit.NewLogger()), WithMeter(testkit.NewMeter()))
	require.NoError(t, err)
	defer locker.Close()

	exerciseLocker(t, locker)
	exerciseMutualExclusion(t, locker)

	// 全部释放后不残留槽位
	assert.Empty(t, locker.(*localLocker).keys.slots)
}

func TestRedisLocker(t *testing.T) {
	conn := testkit.GetRedisConnector(t)
	locker, err := New(&Config{
		Driver:        DriverRedis,
		Prefix:        "nftledger:test:lock:",
		DefaultTTL:    2 * time.Second,
		RetryInterval: 10 * time.Millisecond,
	}, WithRedisConnector(conn), WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	defer locker.Close()

	exerciseLocker(t, locker)
	exerciseMutualExclusion(t, locker)
}

func TestRedisLockerAcrossInstances(t *testing.T) {
	conn := testkit.GetRedisConnector(t)
	cfg := &Config{Driver: DriverRedis, Prefix: "nftledger:test:lock:", DefaultTTL: time.Second}
	a, err := New(cfg, WithRedisConnector(conn))
	require.NoError(t, err)
	defer a.Close()
	b, err := New(cfg, WithRedisConnector(conn))
	require.NoError(t, err)
	defer b.Close()

	ctx := testkit.NewContext(t, 10*time.Second)
	key := "shared:" + testkit.NewID()
	require.NoError(t, a.Lock(ctx, key))

	// 看门狗续期，租期过后仍被 a 持有
	time.Sleep(1500 * time.Millisecond)
	ok, err := b.TryLock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Unlock(ctx, key))
	ok, err = b.TryLock(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock(ctx, key))
}

func TestEtcdLocker(t *testing.T) {
	conn := testkit.GetEtcdConnector(t)
	prefix := "/nftledger/test/lock/" + testkit.NewID() + "/"
	testkit.CleanupEtcdPrefix(t, conn, prefix)

	locker, err := New(&Config{Driver: DriverEtcd, Prefix: prefix, DefaultTTL: 5 * time.Second},
		WithEtcdConnector(conn), WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	defer locker.Close()

	exerciseLocker(t, locker)
	exerciseMutualExclusion(t, locker)
}
