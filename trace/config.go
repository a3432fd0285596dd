package trace

import "github.com/ceyewan/nftledger/xerrors"

// Batcher 取值
const (
	BatcherBatch  = "batch"
	BatcherSimple = "simple"
)

// Config 链路追踪配置
type Config struct {
	// ServiceName 写入 Resource 的 service.name
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`

	// Endpoint OTLP gRPC 地址，如 "localhost:4317"；为空时只生成 TraceID 不导出
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Sampler 采样率 [0, 1] (默认: 1)
	Sampler float64 `json:"sampler" yaml:"sampler" mapstructure:"sampler"`

	// Batcher "batch" | "simple" (默认: "batch")
	Batcher string `json:"batcher" yaml:"batcher" mapstructure:"batcher"`

	Insecure bool `json:"insecure" yaml:"insecure" mapstructure:"insecure"`
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "nftledger"
	}
	if c.Sampler == 0 {
		c.Sampler = 1
	}
	if c.Batcher == "" {
		c.Batcher = BatcherBatch
	}
}

func (c *Config) validate() error {
	if c.Sampler < 0 || c.Sampler > 1 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "trace: sampler must be between 0 and 1, got %v", c.Sampler)
	}
	if c.Batcher != BatcherBatch && c.Batcher != BatcherSimple {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "trace: batcher must be %q or %q, got %q", BatcherBatch, BatcherSimple, c.Batcher)
	}
	return nil
}
