package nft

import (
	"time"

	"github.com/ceyewan/nftledger/xerrors"
)

// Config 服务配置
type Config struct {
	// AllocatorName 存储中标识符计数器的名称，默认 "token_id"
	AllocatorName string `json:"allocator_name" yaml:"allocator_name" mapstructure:"allocator_name"`

	// AllocatorFloor 首个标识符，默认 0
	AllocatorFloor uint64 `json:"allocator_floor" yaml:"allocator_floor" mapstructure:"allocator_floor"`

	// MaxBatch 单次发行或转移的最大数量，默认 100000
	MaxBatch uint64 `json:"max_batch" yaml:"max_batch" mapstructure:"max_batch"`

	// MaxNameLen 资产名称最大字节数，默认 32
	MaxNameLen int `json:"max_name_len" yaml:"max_name_len" mapstructure:"max_name_len"`

	// MaxMemoLen 备注最大字节数，默认 256
	MaxMemoLen int `json:"max_memo_len" yaml:"max_memo_len" mapstructure:"max_memo_len"`

	// MaxAccountLen 账户名最大字节数，默认 64
	MaxAccountLen int `json:"max_account_len" yaml:"max_account_len" mapstructure:"max_account_len"`

	// LockKey 变更操作共用的锁键，默认 "ledger"
	LockKey string `json:"lock_key" yaml:"lock_key" mapstructure:"lock_key"`

	// KindCacheTTL 资产类型读缓存时间，默认 1 分钟
	KindCacheTTL time.Duration `json:"kind_cache_ttl" yaml:"kind_cache_ttl" mapstructure:"kind_cache_ttl"`

	// HistoryLimit History 未指定条数时的默认值，默认 50
	HistoryLimit int `json:"history_limit" yaml:"history_limit" mapstructure:"history_limit"`
}

func (c *Config) setDefaults() {
	if c.AllocatorName == "" {
		c.AllocatorName = "token_id"
	}
	if c.MaxBatch == 0 {
		c.MaxBatch = 100000
	}
	if c.MaxNameLen <= 0 {
		c.MaxNameLen = 32
	}
	if c.MaxMemoLen <= 0 {
		c.MaxMemoLen = 256
	}
	if c.MaxAccountLen <= 0 {
		c.MaxAccountLen = 64
	}
	if c.LockKey == "" {
		c.LockKey = "ledger"
	}
	if c.KindCacheTTL <= 0 {
		c.KindCacheTTL = time.Minute
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 50
	}
}

func (c *Config) validate() error {
	if c.MaxAccountLen > 64 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "nft: max_account_len %d exceeds storage column size 64", c.MaxAccountLen)
	}
	if c.MaxMemoLen > 256 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "nft: max_memo_len %d exceeds storage column size 256", c.MaxMemoLen)
	}
	if c.MaxNameLen > 64 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "nft: max_name_len %d exceeds storage column size 64", c.MaxNameLen)
	}
	return nil
}
