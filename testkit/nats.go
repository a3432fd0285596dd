package testkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/connector"
)

// GetNATSConfig 返回 NATS 测试配置，地址可用 NFTLEDGER_TEST_NATS_URL 覆盖
func GetNATSConfig() *connector.NATSConfig {
	return &connector.NATSConfig{
		Name:          "test-nats",
		URL:           envOr("NFTLEDGER_TEST_NATS_URL", "nats://localhost:4222"),
		Timeout:       time.Second,
		MaxReconnects: 1,
		ReconnectWait: 100 * time.Millisecond,
	}
}

// GetNATSConnector 返回已连接的 NATS 连接器，不可达时跳过测试
func GetNATSConnector(t *testing.T) connector.NATSConnector {
	t.Helper()
	conn, err := connector.NewNATS(GetNATSConfig(), connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create nats connector")
	connectOrSkip(t, "nats", conn)
	return conn
}
