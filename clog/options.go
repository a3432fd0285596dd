package clog

import "bytes"

// Option 配置 Logger
type Option func(*options)

type options struct {
	namespace []string
	fields    []ContextField
	traceIDs  bool
	buffer    *bytes.Buffer
}

// WithNamespace 追加命名空间，多级之间以 "." 连接
//
//	clog.WithNamespace("nftledger", "nft") // namespace=nftledger.nft
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespace = append(o.namespace, parts...)
	}
}

// WithContextField 从 ctx.Value(key) 提取字段，输出为 name
func WithContextField(key any, name string) Option {
	return func(o *options) {
		o.fields = append(o.fields, ContextField{Key: key, FieldName: name})
	}
}

// WithStandardContext 提取 ContextWithRequest / ContextWithAccount 写入的字段
func WithStandardContext() Option {
	return func(o *options) {
		o.fields = append(o.fields, standardFields...)
	}
}

// WithTraceContext 输出当前 span 的 trace_id 与 span_id
func WithTraceContext() Option {
	return func(o *options) { o.traceIDs = true }
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
