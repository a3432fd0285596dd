package trace

// 消息语义属性键
const (
	AttrMessagingSystem      = "messaging.system"
	AttrMessagingDestination = "messaging.destination"
	AttrMessagingOperation   = "messaging.operation"
)

// 消息系统
const (
	MessagingSystemNATS  = "nats"
	MessagingSystemKafka = "kafka"
)

// 消息操作
const (
	MessagingOperationPublish = "publish"
	MessagingOperationConsume = "consume"
)

// SpanNamePublish 发布事件的 Span 名称
func SpanNamePublish(destination string) string {
	if destination == "" {
		return "notify.publish"
	}
	return "notify.publish " + destination
}

// SpanNameConsume 消费事件的 Span 名称
func SpanNameConsume(destination string) string {
	if destination == "" {
		return "notify.consume"
	}
	return "notify.consume " + destination
}
