package metrics

import (
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ceyewan/nftledger/clog"
)

// Option 配置 Meter
type Option func(*options)

type options struct {
	logger  clog.Logger
	readers []sdkmetric.Reader
}

// WithLogger 注入日志记录器，命名空间为 "metrics"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("metrics")
		}
	}
}

// WithReader 在 Prometheus exporter 之外追加一个 Reader，
// 测试中常用 sdkmetric.NewManualReader() 直接读取采集结果
func WithReader(r sdkmetric.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.readers = append(o.readers, r)
		}
	}
}
