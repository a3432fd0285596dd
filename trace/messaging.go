package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName 未指定 Tracer 时使用的名称
const TracerName = "github.com/ceyewan/nftledger"

// MessagingMeta 消息 Span 的标准属性
type MessagingMeta struct {
	System      string
	Destination string
	Operation   string
}

func (m MessagingMeta) attributes(extra []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(extra)+3)
	if m.System != "" {
		out = append(out, attribute.String(AttrMessagingSystem, m.System))
	}
	if m.Destination != "" {
		out = append(out, attribute.String(AttrMessagingDestination, m.Destination))
	}
	if m.Operation != "" {
		out = append(out, attribute.String(AttrMessagingOperation, m.Operation))
	}
	return append(out, extra...)
}

func tracerOrDefault(tracer oteltrace.Tracer) oteltrace.Tracer {
	if tracer == nil {
		return otel.Tracer(TracerName)
	}
	return tracer
}

// StartProducerSpan 启动生产者 Span，返回注入了链路信息的 headers
func StartProducerSpan(
	ctx context.Context,
	tracer oteltrace.Tracer,
	meta MessagingMeta,
	attrs ...attribute.KeyValue,
) (context.Context, oteltrace.Span, map[string]string) {
	ctx, span := tracerOrDefault(tracer).Start(ctx, SpanNamePublish(meta.Destination),
		oteltrace.WithSpanKind(oteltrace.SpanKindProducer))
	span.SetAttributes(meta.attributes(attrs)...)

	headers := map[string]string{}
	Inject(ctx, headers)
	return ctx, span, headers
}

// StartConsumerSpan 从 headers 启动消费者 Span，上游 Span 以 Link 关联
func StartConsumerSpan(
	ctx context.Context,
	tracer oteltrace.Tracer,
	headers map[string]string,
	meta MessagingMeta,
	attrs ...attribute.KeyValue,
) (context.Context, oteltrace.Span) {
	opts := []oteltrace.SpanStartOption{oteltrace.WithSpanKind(oteltrace.SpanKindConsumer)}
	if len(headers) > 0 {
		if remote := oteltrace.SpanContextFromContext(Extract(ctx, headers)); remote.IsValid() {
			opts = append(opts, oteltrace.WithLinks(oteltrace.Link{SpanContext: remote}))
		}
	}

	ctx, span := tracerOrDefault(tracer).Start(ctx, SpanNameConsume(meta.Destination), opts...)
	span.SetAttributes(meta.attributes(attrs)...)
	return ctx, span
}

// MarkSpanError err 不为 nil 时记录到 Span 并标记为错误
func MarkSpanError(span oteltrace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
