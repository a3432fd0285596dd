package dlock

import "time"

type lockOptions struct {
	ttl time.Duration
}

// LockOption 单次加锁选项
type LockOption func(*lockOptions)

// WithTTL 覆盖 Config.DefaultTTL，local 驱动忽略
//
//	locker.Lock(ctx, "kind:LAND", dlock.WithTTL(30*time.Second))
func WithTTL(d time.Duration) LockOption {
	return func(o *lockOptions) {
		o.ttl = d
	}
}

func applyLockOptions(def time.Duration, opts []LockOption) *lockOptions {
	o := &lockOptions{ttl: def}
	for _, opt := range opts {
		opt(o)
	}
	if o.ttl <= 0 {
		o.ttl = def
	}
	return o
}
