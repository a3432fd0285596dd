package idgen

import (
	"math"

	"github.com/ceyewan/nftledger/xerrors"
)

// DefaultKey 默认计数器名
const DefaultKey = "nftledger:token_id"

// Config 分布式分配器配置
type Config struct {
	// Key 计数器在 Redis / Etcd 中的键 (默认: "nftledger:token_id")
	Key string `json:"key" yaml:"key" mapstructure:"key"`

	// Floor 第一个被分配的标识符
	Floor uint64 `json:"floor" yaml:"floor" mapstructure:"floor"`

	// MaxRetries Etcd CAS 冲突时的最大重试次数 (默认: 16)
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

func (c *Config) setDefaults() {
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 16
	}
}

func (c *Config) validate() error {
	c.setDefaults()
	if c.Floor == math.MaxUint64 {
		return xerrors.WithCode(ErrInvalidInput, "floor_out_of_range")
	}
	return nil
}
