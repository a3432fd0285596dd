package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ceyewan/nftledger/connector"
)

// NewSQLiteConfig 返回私有内存库配置，每个连接器一个独立的库
func NewSQLiteConfig() *connector.SQLiteConfig {
	return &connector.SQLiteConfig{
		Name:         "test-sqlite",
		Path:         "file:" + NewID() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}
}

// NewSQLiteConnector 创建并连接内存 SQLite，生命周期由 t.Cleanup 管理
func NewSQLiteConnector(t *testing.T) connector.DatabaseConnector {
	t.Helper()
	conn, err := connector.NewSQLite(NewSQLiteConfig(), connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create sqlite connector")
	require.NoError(t, conn.Connect(context.Background()), "failed to connect to sqlite")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// NewSQLiteDB 返回内存 SQLite 的 GORM 实例
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	return NewSQLiteConnector(t).GetClient()
}

// NewFileSQLiteConnector 在 t.TempDir() 下创建文件库，用于验证重新打开后的持久化
func NewFileSQLiteConnector(t *testing.T, path string) connector.DatabaseConnector {
	t.Helper()
	conn, err := connector.NewSQLite(&connector.SQLiteConfig{Name: "test-sqlite-file", Path: path},
		connector.WithLogger(NewLogger()))
	require.NoError(t, err)
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
