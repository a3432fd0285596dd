package testkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/connector"
)

// GetKafkaConfig 返回 Kafka 测试配置，broker 列表可用 NFTLEDGER_TEST_KAFKA_SEEDS（逗号分隔）覆盖
func GetKafkaConfig() *connector.KafkaConfig {
	return &connector.KafkaConfig{
		Name:     "test-kafka",
		Seed:     strings.Split(envOr("NFTLEDGER_TEST_KAFKA_SEEDS", "localhost:9092"), ","),
		ClientID: "nftledger-test",
	}
}

// GetKafkaConnector 返回已连接的 Kafka 连接器，不可达时跳过测试
func GetKafkaConnector(t *testing.T) connector.KafkaConnector {
	t.Helper()
	conn, err := connector.NewKafka(GetKafkaConfig(), connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create kafka connector")
	connectOrSkip(t, "kafka", conn)
	return conn
}
