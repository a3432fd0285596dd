package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/connector"
)

// GetRedisConfig 返回 Redis 测试配置，地址可用 NFTLEDGER_TEST_REDIS_ADDR 覆盖
func GetRedisConfig() *connector.RedisConfig {
	return &connector.RedisConfig{
		Name:        "test-redis",
		Addr:        envOr("NFTLEDGER_TEST_REDIS_ADDR", "localhost:6379"),
		DB:          1, // 与默认库隔离
		PoolSize:    10,
		DialTimeout: time.Second,
	}
}

// GetRedisConnector 返回已连接的 Redis 连接器，不可达时跳过测试
func GetRedisConnector(t *testing.T) connector.RedisConnector {
	t.Helper()
	conn, err := connector.NewRedis(GetRedisConfig(), connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create redis connector")
	connectOrSkip(t, "redis", conn)
	return conn
}

// CleanupRedisKeys 测试结束时删除给定的键
func CleanupRedisKeys(t *testing.T, conn connector.RedisConnector, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		if client := conn.GetClient(); client != nil {
			_ = client.Del(context.Background(), keys...).Err()
		}
	})
}
