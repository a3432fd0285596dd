package config

import (
	"context"
	"strings"

	"github.com/ceyewan/nftledger/clog"
)

// DefaultEnvPrefix 默认环境变量前缀
const DefaultEnvPrefix = "NFTLEDGER"

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名称（不含扩展名），默认 "config"
	Paths     []string // 配置文件搜索路径，默认 [".", "./config"]
	FileType  string   // 配置文件类型，默认 "yaml"
	EnvPrefix string   // 环境变量前缀，默认 "NFTLEDGER"

	logger clog.Logger
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "config"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = DefaultEnvPrefix
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
	if c.logger == nil {
		c.logger = clog.Discard()
	}
	return nil
}

// New 创建配置加载器，尚未读取任何配置
func New(opts ...Option) (Loader, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newLoader(cfg), nil
}

// Load 创建加载器并立即加载配置
func Load(ctx context.Context, opts ...Option) (Loader, error) {
	l, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// MustLoad 类似 Load，但出错时 panic
func MustLoad(ctx context.Context, opts ...Option) Loader {
	l, err := Load(ctx, opts...)
	if err != nil {
		panic(err)
	}
	return l
}
