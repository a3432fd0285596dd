package cache

import (
	"time"

	"github.com/ceyewan/nftledger/cache/serializer"
	"github.com/ceyewan/nftledger/xerrors"
)

// 驱动类型
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config 缓存配置
type Config struct {
	// Driver "memory" | "redis"，默认 memory
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Prefix 键前缀，默认 "nftledger:"
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Serializer "json" | "msgpack"，默认 msgpack
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`

	// DefaultTTL Set 未指定 TTL 时使用，默认 5 分钟
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// Capacity memory 驱动的最大条目数，默认 10000
	Capacity int `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Prefix == "" {
		c.Prefix = "nftledger:"
	}
	if c.Serializer == "" {
		c.Serializer = serializer.MsgPack
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	if c.Capacity <= 0 {
		c.Capacity = 10000
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverMemory, DriverRedis:
	default:
		return xerrors.Wrapf(ErrInvalidConfig, "unsupported driver %q", c.Driver)
	}
	return nil
}
