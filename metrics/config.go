package metrics

import "fmt"

// Config 指标系统配置
//
//	metrics:
//	  enabled: true
//	  service_name: "nftledger"
//	  version: "v0.1.0"
//	  port: 9090
//	  path: "/metrics"
//	  enable_runtime: true
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter
	Enabled bool `mapstructure:"enabled"`

	// ServiceName / Version 作为 OpenTelemetry Resource 的 service.name / service.version
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`

	// Port 大于 0 且 Path 非空时启动 Prometheus HTTP 服务器
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`

	// EnableRuntime 采集 Go 运行时指标（GC、goroutine、内存）
	EnableRuntime bool `mapstructure:"enable_runtime"`
}

// NewDevDefaultConfig 开发环境默认配置：启用指标但不暴露 HTTP 端口
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
	}
}

// NewProdDefaultConfig 生产环境默认配置：9090 端口暴露 /metrics 并采集运行时指标
func NewProdDefaultConfig(serviceName, version string) *Config {
	return &Config{
		Enabled:       true,
		ServiceName:   serviceName,
		Version:       version,
		Port:          9090,
		Path:          "/metrics",
		EnableRuntime: true,
	}
}

func (c *Config) validate() error {
	if c.ServiceName == "" {
		c.ServiceName = "nftledger"
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Port > 0 && c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Path != "" && c.Path[0] != '/' {
		return fmt.Errorf("invalid path: %q, must start with /", c.Path)
	}
	return nil
}
