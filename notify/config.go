package notify

import (
	"github.com/ceyewan/nftledger/cache/serializer"
	"github.com/ceyewan/nftledger/xerrors"
)

// 驱动类型
const (
	DriverNoop  = "noop"
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// Config 通知配置
type Config struct {
	// Driver noop | nats | kafka，默认 noop
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Subject nats 主题前缀，默认 "nftledger.events"
	Subject string `json:"subject" yaml:"subject" mapstructure:"subject"`

	// Topic kafka 主题，默认 "nftledger-events"
	Topic string `json:"topic" yaml:"topic" mapstructure:"topic"`

	// Serializer json | msgpack，默认 json
	Serializer string `json:"serializer" yaml:"serializer" mapstructure:"serializer"`
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverNoop
	}
	if c.Subject == "" {
		c.Subject = "nftledger.events"
	}
	if c.Topic == "" {
		c.Topic = "nftledger-events"
	}
	if c.Serializer == "" {
		c.Serializer = serializer.JSON
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverNoop, DriverNATS, DriverKafka:
		return nil
	default:
		return xerrors.Wrapf(ErrInvalidConfig, "unsupported driver %q", c.Driver)
	}
}
