package db

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/metrics"
)

// Option 配置 DB 实例的选项
type Option func(*options)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
	tracer trace.TracerProvider
}

// WithLogger 注入日志记录器，SQL 日志通过它输出
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("db")
		}
	}
}

// WithMeter 注入指标收集器，记录事务次数与耗时
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithTracer 注入 TracerProvider，每条 SQL 生成一个 span
func WithTracer(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp
	}
}
