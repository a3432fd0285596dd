// Package notify 在发行与转移提交后通知接收方。
//
// 事件经 serializer 编码后发布到消息系统：
//   - nats：主题为 <Subject>.<type>.<kind>，例如 nftledger.events.issued.LAND
//   - kafka：写入单个 Topic，记录键为接收方账户，同一账户的事件保持有序
//   - noop：丢弃，默认驱动
//
// 通知在存储事务提交之后发出，发布失败只记录日志，不影响已提交的操作。
package notify

import (
	"context"
	"time"

	"github.com/ceyewan/nftledger/cache/serializer"
	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/xerrors"
)

// 指标名称
const (
	MetricPublishedTotal = "nftledger_notify_published_total"
)

// 消息头
const (
	HeaderEventType   = "Nft-Event"
	HeaderContentType = "Content-Type"
)

// EventType 事件类型
type EventType string

const (
	EventIssued      EventType = "issued"
	EventTransferred EventType = "transferred"
)

// Event 通知内容
type Event struct {
	Type      EventType    `json:"type" msgpack:"type"`
	Kind      string       `json:"kind" msgpack:"kind"`
	From      string       `json:"from,omitempty" msgpack:"from,omitempty"`
	To        string       `json:"to" msgpack:"to"`
	IDs       rangeset.Set `json:"ids" msgpack:"ids"`
	Memo      string       `json:"memo,omitempty" msgpack:"memo,omitempty"`
	JournalID uint64       `json:"journal_id,omitempty" msgpack:"journal_id,omitempty"`
	At        time.Time    `json:"at" msgpack:"at"`
}

// Notifier 事件发布者
type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// New 按 Config.Driver 创建 Notifier
func New(cfg *Config, opts ...Option) (Notifier, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, xerrors.Wrap(ErrInvalidConfig, err.Error())
	}
	published, err := o.meter.Counter(MetricPublishedTotal, "发布的通知数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create published counter")
	}
	pub := &publisher{
		driver:     cfg.Driver,
		serializer: s,
		logger:     o.logger,
		published:  published,
	}

	switch cfg.Driver {
	case DriverNATS:
		if o.nats == nil || o.nats.GetClient() == nil {
			return nil, xerrors.Wrap(ErrConnectorNil, "nats driver requires a connected WithNATSConnector")
		}
		return newNATS(o.nats.GetClient(), cfg, pub), nil
	case DriverKafka:
		if o.kafka == nil || o.kafka.GetClient() == nil {
			return nil, xerrors.Wrap(ErrConnectorNil, "kafka driver requires a connected WithKafkaConnector")
		}
		return newKafka(o.kafka.GetClient(), cfg, pub), nil
	default:
		return Noop(), nil
	}
}

// Noop 返回丢弃所有事件的 Notifier
func Noop() Notifier {
	return noop{}
}

type noop struct{}

func (noop) Notify(context.Context, Event) error { return nil }
func (noop) Close() error                        { return nil }

// publisher 各驱动共享的编码与统计
type publisher struct {
	driver     string
	serializer serializer.Serializer
	logger     clog.Logger
	published  metrics.Counter
}

func (p *publisher) encode(event Event) ([]byte, error) {
	if event.Type == "" || event.Kind == "" || event.To == "" {
		return nil, xerrors.Wrapf(ErrInvalidEvent, "type %q kind %q to %q", event.Type, event.Kind, event.To)
	}
	data, err := p.serializer.Marshal(event)
	if err != nil {
		return nil, xerrors.Wrapf(err, "encode %s event", event.Type)
	}
	return data, nil
}

func (p *publisher) contentType() string {
	return "application/" + p.serializer.Name()
}

func (p *publisher) observe(ctx context.Context, event Event, err error) {
	p.published.Inc(ctx,
		metrics.L("driver", p.driver),
		metrics.L("type", string(event.Type)),
		metrics.Outcome(err),
	)
	if err != nil {
		p.logger.WarnContext(ctx, "publish failed",
			clog.String("type", string(event.Type)),
			clog.String("kind", event.Kind),
			clog.String("to", event.To),
			clog.Error(err),
		)
		return
	}
	p.logger.DebugContext(ctx, "published",
		clog.String("type", string(event.Type)),
		clog.String("kind", event.Kind),
		clog.Stringer("ids", event.IDs),
	)
}
