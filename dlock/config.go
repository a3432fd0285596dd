package dlock

import (
	"time"

	"github.com/ceyewan/nftledger/xerrors"
)

// 驱动类型
const (
	DriverLocal = "local"
	DriverRedis = "redis"
	DriverEtcd  = "etcd"
)

// Config 锁配置
type Config struct {
	// Driver local | redis | etcd，默认 local
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Prefix 远端锁键前缀，默认 "nftledger:lock:"
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// DefaultTTL 远端锁租期，持有期间自动续期，默认 10s
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// RetryInterval Lock 轮询远端锁的间隔，默认 50ms
	RetryInterval time.Duration `json:"retry_interval" yaml:"retry_interval" mapstructure:"retry_interval"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverLocal
	}
	if c.Prefix == "" {
		c.Prefix = "nftledger:lock:"
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 10 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 50 * time.Millisecond
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverLocal, DriverRedis, DriverEtcd:
	default:
		return xerrors.Wrapf(ErrInvalidConfig, "unsupported driver %q", c.Driver)
	}
	if c.Driver == DriverEtcd && c.DefaultTTL < time.Second {
		return xerrors.Wrap(ErrInvalidConfig, "etcd lease ttl must be at least 1s")
	}
	return nil
}
