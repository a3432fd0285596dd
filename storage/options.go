package storage

import (
	"time"

	"github.com/ceyewan/nftledger/cache/serializer"
	"github.com/ceyewan/nftledger/clog"
)

type options struct {
	logger     clog.Logger
	serializer serializer.Serializer
	clock      func() time.Time
}

// Option 存储选项
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("storage")
		}
	}
}

// WithSerializer 设置区间集合在数据库中的编码，默认 msgpack
func WithSerializer(s serializer.Serializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

// WithClock 设置时间来源，用于测试
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		logger:     clog.Discard(),
		serializer: serializer.Must(serializer.MsgPack),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
