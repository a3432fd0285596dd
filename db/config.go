package db

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/ceyewan/nftledger/xerrors"
)

// Config DB 组件配置
type Config struct {
	// LogLevel SQL 日志级别: "silent" | "error" | "warn" | "info" (默认: "warn")
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// SlowThreshold 超过该耗时的 SQL 以 warn 级别记录 (默认: 200ms)
	SlowThreshold time.Duration `json:"slow_threshold" yaml:"slow_threshold" mapstructure:"slow_threshold"`

	// EnableSharding 是否开启分表
	EnableSharding bool `json:"enable_sharding" yaml:"enable_sharding" mapstructure:"enable_sharding"`

	// ShardingRules 分表规则，所有规则必须使用相同的分表键与分表数量
	ShardingRules []ShardingRule `json:"sharding_rules" yaml:"sharding_rules" mapstructure:"sharding_rules"`
}

// ShardingRule 分表规则
type ShardingRule struct {
	// ShardingKey 分表键，必须是整数列，如 "kind_id"
	ShardingKey string `json:"sharding_key" yaml:"sharding_key" mapstructure:"sharding_key"`

	// NumberOfShards 分表数量
	NumberOfShards uint `json:"number_of_shards" yaml:"number_of_shards" mapstructure:"number_of_shards"`

	// Tables 应用此规则的逻辑表名
	Tables []string `json:"tables" yaml:"tables" mapstructure:"tables"`
}

// suffix 与 gorm.io/sharding 的默认后缀格式一致：_0 .. _N-1，按位数补零
func (r ShardingRule) suffix(i uint) string {
	digits := len(strconv.Itoa(int(r.NumberOfShards)))
	return fmt.Sprintf("_%0*d", digits, i)
}

var logLevels = []string{"silent", "error", "warn", "info"}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.SlowThreshold == 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
}

func (c *Config) validate() error {
	c.setDefaults()

	if !slices.Contains(logLevels, c.LogLevel) {
		return xerrors.Wrapf(ErrInvalidConfig, "unsupported log level %q", c.LogLevel)
	}
	if c.EnableSharding && len(c.ShardingRules) == 0 {
		return xerrors.Wrap(ErrInvalidConfig, "sharding enabled but no rules provided")
	}

	seen := make(map[string]bool)
	for _, rule := range c.ShardingRules {
		if rule.ShardingKey == "" {
			return xerrors.Wrap(ErrInvalidConfig, "sharding key cannot be empty")
		}
		if rule.NumberOfShards == 0 {
			return xerrors.Wrap(ErrInvalidConfig, "number of shards must be greater than 0")
		}
		if first := c.ShardingRules[0]; rule.ShardingKey != first.ShardingKey || rule.NumberOfShards != first.NumberOfShards {
			return xerrors.Wrapf(ErrInvalidConfig, "sharding rule for %v uses %s/%d, expected %s/%d",
				rule.Tables, rule.ShardingKey, rule.NumberOfShards, first.ShardingKey, first.NumberOfShards)
		}
		if len(rule.Tables) == 0 {
			return xerrors.Wrap(ErrInvalidConfig, "sharding tables cannot be empty")
		}
		for _, table := range rule.Tables {
			if table == "" {
				return xerrors.Wrap(ErrInvalidConfig, "sharding table name cannot be empty")
			}
			if seen[table] {
				return xerrors.Wrapf(ErrInvalidConfig, "table %s appears in more than one rule", table)
			}
			seen[table] = true
		}
	}
	return nil
}
