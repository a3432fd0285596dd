// Package clog 为 nftledger 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层 slog 实现
//   - 层级命名空间，每个组件通过 WithNamespace 派生自己的 Logger
//   - 从 Context 提取字段（请求 ID、OpenTelemetry TraceID）
//   - 错误字段自动携带 xerrors 错误码
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{Level: "info", Format: "json"})
//	logger.Info("kind created", clog.String("kind", "LAND"))
//
// 组件内使用：
//
//	l := logger.WithNamespace("ledger")
//	l.Error("record corrupted", clog.String("account", "alice"), clog.Error(err))
package clog

import "context"

// Logger 日志接口
//
// 支持 Debug、Info、Warn、Error、Fatal 五个级别，每个级别都有带 Context 的版本。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// 带 Context 的版本会提取 WithContextField / WithTraceContext 配置的字段
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	FatalContext(ctx context.Context, msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	//
	//   logger.WithNamespace("nft").WithNamespace("issue")
	//   // namespace=nft.issue
	WithNamespace(parts ...string) Logger

	// SetLevel 动态调整日志级别，对所有派生 Logger 生效
	SetLevel(level Level) error

	// Flush 强制同步所有缓冲区的日志
	Flush()
}
