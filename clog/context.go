package clog

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// ContextField 描述一个从 Context 提取的日志字段
type ContextField struct {
	Key       any
	FieldName string
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	accountKey   contextKey = "account"
)

var standardFields = []ContextField{
	{Key: requestIDKey, FieldName: "request_id"},
	{Key: accountKey, FieldName: "account"},
}

// ContextWithRequest 在 ctx 中记录请求 ID，配合 WithStandardContext 输出
func ContextWithRequest(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithAccount 在 ctx 中记录发起操作的账户
func ContextWithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

func appendContextFields(ctx context.Context, o *options, attrs []slog.Attr) []slog.Attr {
	for _, f := range o.fields {
		if v := ctx.Value(f.Key); v != nil {
			attrs = append(attrs, slog.Any(f.FieldName, v))
		}
	}
	if !o.traceIDs {
		return attrs
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		attrs = append(attrs, slog.String("span_id", sc.SpanID().String()))
	}
	return attrs
}
