package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/nftledger/connector"
)

// GetEtcdConfig 返回 Etcd 测试配置，地址可用 NFTLEDGER_TEST_ETCD_ENDPOINT 覆盖
func GetEtcdConfig() *connector.EtcdConfig {
	return &connector.EtcdConfig{
		Name:        "test-etcd",
		Endpoints:   []string{envOr("NFTLEDGER_TEST_ETCD_ENDPOINT", "localhost:2379")},
		DialTimeout: time.Second,
	}
}

// GetEtcdConnector 返回已连接的 Etcd 连接器，不可达时跳过测试
func GetEtcdConnector(t *testing.T) connector.EtcdConnector {
	t.Helper()
	conn, err := connector.NewEtcd(GetEtcdConfig(), connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create etcd connector")
	connectOrSkip(t, "etcd", conn)
	return conn
}

// CleanupEtcdPrefix 测试结束时删除前缀下的所有键
func CleanupEtcdPrefix(t *testing.T, conn connector.EtcdConnector, prefix string) {
	t.Helper()
	t.Cleanup(func() {
		if client := conn.GetClient(); client != nil {
			_, _ = client.Delete(context.Background(), prefix, clientv3.WithPrefix())
		}
	})
}
