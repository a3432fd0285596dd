package notify

import (
	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/metrics"
)

// Option 初始化选项
type Option func(*options)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
	nats   connector.NATSConnector
	kafka  connector.KafkaConnector
}

// WithLogger 注入日志记录器，自动追加 Namespace "notify"
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("notify")
		}
	}
}

// WithMeter 注入指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithNATSConnector 注入 NATS 连接器
func WithNATSConnector(conn connector.NATSConnector) Option {
	return func(o *options) {
		o.nats = conn
	}
}

// WithKafkaConnector 注入 Kafka 连接器
func WithKafkaConnector(conn connector.KafkaConnector) Option {
	return func(o *options) {
		o.kafka = conn
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
