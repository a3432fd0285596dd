// Package config 为 nftledger 提供统一的配置管理能力，基于 Viper 实现。
//
// 加载顺序（后者覆盖前者）：
//   - 基础配置文件 config.yaml
//   - 环境特定配置 config.<env>.yaml，env 取自 <PREFIX>_ENV
//   - .env 文件（godotenv）
//   - 环境变量 <PREFIX>_<KEY>，"." 替换为 "_"
//
// 基本使用：
//
//	loader := config.MustLoad(context.Background(),
//		config.WithConfigName("config"),
//		config.WithConfigPaths("./config"),
//		config.WithEnvPrefix("NFTLEDGER"),
//	)
//
//	var logCfg clog.Config
//	if err := loader.UnmarshalKey("log", &logCfg); err != nil {
//		panic(err)
//	}
//
//	// 监听配置变化（文件修改后推送）
//	ch, _ := loader.Watch(ctx, "log.level")
//	for event := range ch {
//		_ = logger.SetLevel(...)
//	}
package config

import (
	"context"
	"time"
)

// Loader 配置加载器：加载、解析和监听配置变化
type Loader interface {
	// Load 加载配置并启动文件监听
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 监听配置变化，ctx 取消后通道关闭
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// Validate 验证当前配置的有效性
	Validate() error
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Source    string // "file"
	Timestamp time.Time
}
