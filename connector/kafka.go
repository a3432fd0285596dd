package connector

import (
	"context"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

type kafkaConnector struct {
	*base
	cfg *KafkaConfig

	mu     sync.RWMutex
	client *kgo.Client
}

// NewKafka 创建 Kafka 连接器
func NewKafka(cfg *KafkaConfig, opts ...Option) (KafkaConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "kafka config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b, err := newBase("kafka", cfg.Name, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	return &kafkaConnector{base: b, cfg: cfg}, nil
}

// Connect 创建客户端并 Ping 一个 broker
func (c *kafkaConnector) Connect(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}
	defer func() { c.observeConnect(ctx, err) }()

	c.logger.InfoContext(ctx, "connecting", clog.Any("seeds", c.cfg.Seed))

	opts := []kgo.Opt{
		kgo.SeedBrokers(c.cfg.Seed...),
		kgo.ClientID(c.cfg.ClientID),
		kgo.RequestTimeoutOverhead(c.cfg.RequestTimeout),
		kgo.WithLogger(&kgoLogger{logger: c.logger}),
		kgo.AllowAutoTopicCreation(),
	}
	if c.cfg.User != "" {
		opts = append(opts, kgo.SASL(plain.Auth{User: c.cfg.User, Pass: c.cfg.Password}.AsMechanism()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return c.connectErr(ctx, err, "new client")
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return c.connectErr(ctx, err, "ping")
	}

	c.client = client
	c.logger.InfoContext(ctx, "connected")
	return nil
}

// Close 关闭客户端
func (c *kafkaConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.client != nil {
		c.client.Close()
		c.client = nil
		c.logger.Info("closed")
	}
	return nil
}

// HealthCheck Ping 一个 broker
func (c *kafkaConnector) HealthCheck(ctx context.Context) error {
	client := c.GetClient()
	if client == nil {
		return c.clientNil()
	}
	if err := client.Ping(ctx); err != nil {
		return c.healthErr(ctx, err)
	}
	c.healthy.Store(true)
	return nil
}

// GetClient 返回 franz-go 客户端
func (c *kafkaConnector) GetClient() *kgo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// kgoLogger 将 franz-go 的日志转到 clog
type kgoLogger struct {
	logger clog.Logger
}

func (l *kgoLogger) Level() kgo.LogLevel {
	return kgo.LogLevelWarn
}

func (l *kgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	fields := make([]clog.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			fields = append(fields, clog.Any(key, keyvals[i+1]))
		}
	}

	switch level {
	case kgo.LogLevelError:
		l.logger.Error(msg, fields...)
	case kgo.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	case kgo.LogLevelInfo:
		l.logger.Info(msg, fields...)
	default:
		l.logger.Debug(msg, fields...)
	}
}
