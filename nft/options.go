package nft

import (
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/nftledger/cache"
	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/dlock"
	"github.com/ceyewan/nftledger/idgen"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/notify"
)

// Option 服务选项
type Option func(*options)

type options struct {
	logger    clog.Logger
	meter     metrics.Meter
	locker    dlock.Locker
	notifier  notify.Notifier
	cache     cache.Cache
	allocator idgen.Allocator
	tracer    oteltrace.TracerProvider
}

// WithLogger 注入日志记录器，自动追加 Namespace "nft"
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
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

// WithLocker 设置串行执行变更操作的锁，默认进程内锁
func WithLocker(l dlock.Locker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithNotifier 设置提交后的事件通知，默认丢弃
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithCache 设置资产类型读缓存，默认不缓存
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithAllocator 使用外部标识符分配器（Redis、Etcd）
//
// 默认分配器把计数器存放在同一个存储事务中，发行失败时不消耗标识符；
// 外部分配器在 Advance 之后提交失败会留下空洞。
func WithAllocator(a idgen.Allocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithTracerProvider 设置变更操作 Span 的 TracerProvider，默认使用全局 Provider
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp
		}
	}
}
