package notify

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ceyewan/nftledger/trace"
	"github.com/ceyewan/nftledger/xerrors"
)

type kafkaNotifier struct {
	*publisher
	client *kgo.Client
	topic  string
}

func newKafka(client *kgo.Client, cfg *Config, pub *publisher) Notifier {
	return &kafkaNotifier{publisher: pub, client: client, topic: cfg.Topic}
}

// Notify 同步写入，返回时 broker 已确认
func (k *kafkaNotifier) Notify(ctx context.Context, event Event) (err error) {
	defer func() { k.observe(ctx, event, err) }()

	data, err := k.encode(event)
	if err != nil {
		return err
	}
	ctx, span, headers := trace.StartProducerSpan(ctx, nil, trace.MessagingMeta{
		System:      trace.MessagingSystemKafka,
		Destination: k.topic,
		Operation:   trace.MessagingOperationPublish,
	})
	defer func() {
		trace.MarkSpanError(span, err)
		span.End()
	}()

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.To),
		Value: data,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventType, Value: []byte(event.Type)},
			{Key: HeaderContentType, Value: []byte(k.contentType())},
		},
	}
	for key, v := range headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: key, Value: []byte(v)})
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return xerrors.Wrapf(err, "produce to %s", k.topic)
	}
	return nil
}

func (k *kafkaNotifier) Close() error {
	return k.client.Flush(context.Background())
}
