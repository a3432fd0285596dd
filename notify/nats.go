package notify

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/ceyewan/nftledger/trace"
	"github.com/ceyewan/nftledger/xerrors"
)

type natsNotifier struct {
	*publisher
	conn    *nats.Conn
	subject string
}

func newNATS(conn *nats.Conn, cfg *Config, pub *publisher) Notifier {
	return &natsNotifier{publisher: pub, conn: conn, subject: cfg.Subject}
}

// Subject 事件发布的完整主题
func Subject(prefix string, event Event) string {
	return prefix + "." + string(event.Type) + "." + event.Kind
}

func (n *natsNotifier) Notify(ctx context.Context, event Event) (err error) {
	defer func() { n.observe(ctx, event, err) }()

	data, err := n.encode(event)
	if err != nil {
		return err
	}
	subject := Subject(n.subject, event)
	_, span, headers := trace.StartProducerSpan(ctx, nil, trace.MessagingMeta{
		System:      trace.MessagingSystemNATS,
		Destination: subject,
		Operation:   trace.MessagingOperationPublish,
	})
	defer func() {
		trace.MarkSpanError(span, err)
		span.End()
	}()

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	for k, v := range headers {
		msg.Header.Set(k, v)
	}
	msg.Header.Set(HeaderEventType, string(event.Type))
	msg.Header.Set(HeaderContentType, n.contentType())

	if err := n.conn.PublishMsg(msg); err != nil {
		return xerrors.Wrapf(err, "publish %s", subject)
	}
	return nil
}

// Close 连接由连接器管理，这里只把缓冲的消息刷出去
func (n *natsNotifier) Close() error {
	return n.conn.Flush()
}
