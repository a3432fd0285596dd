// Package testkit 提供测试共用的依赖：日志、指标、内存 SQLite，
// 以及在服务可达时才运行的 Redis / Etcd / NATS / Kafka 连接。
//
// 外部服务的地址可以用环境变量覆盖，例如 NFTLEDGER_TEST_REDIS_ADDR；
// 服务不可达或使用 -short 时，相关测试被跳过而不是失败。
package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/metrics"
)

// Kit 通用测试依赖
type Kit struct {
	Ctx    context.Context
	Logger clog.Logger
	Meter  metrics.Meter
}

// NewKit 返回带默认依赖的测试工具包
func NewKit(t *testing.T) *Kit {
	t.Helper()
	return &Kit{
		Ctx:    t.Context(),
		Logger: NewLogger(),
		Meter:  NewMeter(),
	}
}

// NewLogger 返回开发格式的 logger，只输出 warn 以上，避免淹没测试输出
func NewLogger() clog.Logger {
	cfg := clog.NewDevDefaultConfig("nftledger")
	cfg.Level = "warn"
	logger, err := clog.New(cfg)
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewMeter 返回不导出的 meter，指标只在进程内聚合
func NewMeter() metrics.Meter {
	meter, err := metrics.New(metrics.NewDevDefaultConfig("nftledger-test"))
	if err != nil {
		return metrics.Discard()
	}
	return meter
}

// NewContext 返回带超时的上下文，测试结束时自动取消
func NewContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// NewID 返回 8 位随机串，用于隔离测试间的键、主题与账户名
func NewID() string {
	return uuid.New().String()[0:8]
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// connectOrSkip 连接外部服务，失败时跳过当前测试
func connectOrSkip(t *testing.T, kind string, conn connector.Connector) {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s test in short mode", kind)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Connect(ctx); err != nil {
		_ = conn.Close()
		t.Skipf("%s unavailable: %v", kind, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
}
