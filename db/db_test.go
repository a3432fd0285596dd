package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceyewan/nftledger/testkit"
	"github.com/ceyewan/nftledger/xerrors"
)

type account struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"size:32;uniqueIndex"`
}

func newSQLite(t *testing.T, cfg *Config) DB {
	t.Helper()
	conn := testkit.NewSQLiteConnector(t)
	database, err := New(conn, cfg, WithLogger(testkit.NewLogger()), WithMeter(testkit.NewMeter()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"bad log level", Config{LogLevel: "trace"}, true},
		{"sharding without rules", Config{EnableSharding: true}, true},
		{"empty key", Config{EnableSharding: true, ShardingRules: []ShardingRule{{NumberOfShards: 2, Tables: []string{"t"}}}}, true},
		{"zero shards", Config{EnableSharding: true, ShardingRules: []ShardingRule{{ShardingKey: "k", Tables: []string{"t"}}}}, true},
		{"no tables", Config{EnableSharding: true, ShardingRules: []ShardingRule{{ShardingKey: "k", NumberOfShards: 2}}}, true},
		{"table in two rules", Config{EnableSharding: true, ShardingRules: []ShardingRule{
			{ShardingKey: "a", NumberOfShards: 2, Tables: []string{"t"}},
			{ShardingKey: "b", NumberOfShards: 2, Tables: []string{"t"}},
		}}, true},
		{"rules disagree on shards", Config{EnableSharding: true, ShardingRules: []ShardingRule{
			{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_journal"}},
			{ShardingKey: "kind_id", NumberOfShards: 16, Tables: []string{"nft_archive"}},
		}}, true},
		{"rules disagree on key", Config{EnableSharding: true, ShardingRules: []ShardingRule{
			{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_journal"}},
			{ShardingKey: "account_id", NumberOfShards: 4, Tables: []string{"nft_archive"}},
		}}, true},
		{"two matching rules", Config{EnableSharding: true, ShardingRules: []ShardingRule{
			{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_journal"}},
			{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_archive"}},
		}}, false},
		{"valid sharding", Config{EnableSharding: true, ShardingRules: []ShardingRule{{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_journal"}}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.validate()
			if tt.wantErr {
				assert.True(t, xerrors.Is(err, ErrInvalidConfig), "got %v", err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "warn", cfg.LogLevel)
		})
	}
}

func TestNewRequiresConnector(t *testing.T) {
	_, err := New(nil, nil)
	assert.True(t, xerrors.Is(err, ErrConnectorRequired))
}

func TestShardTables(t *testing.T) {
	// 两条规则合并为一个 sharding 插件
	database := newSQLite(t, &Config{
		EnableSharding: true,
		ShardingRules: []ShardingRule{
			{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_journal"}},
			{ShardingKey: "kind_id", NumberOfShards: 4, Tables: []string{"nft_archive"}},
		},
	})

	assert.Equal(t, []string{"nft_journal_0", "nft_journal_1", "nft_journal_2", "nft_journal_3"}, database.ShardTables("nft_journal"))
	assert.Equal(t, []string{"nft_archive_0", "nft_archive_1", "nft_archive_2", "nft_archive_3"}, database.ShardTables("nft_archive"))
	assert.Equal(t, []string{"nft_kinds"}, database.ShardTables("nft_kinds"))

	wide := newSQLite(t, &Config{
		EnableSharding: true,
		ShardingRules:  []ShardingRule{{ShardingKey: "kind_id", NumberOfShards: 16, Tables: []string{"nft_journal"}}},
	})
	journal := wide.ShardTables("nft_journal")
	require.Len(t, journal, 16)
	assert.Equal(t, "nft_journal_00", journal[0])
	assert.Equal(t, "nft_journal_15", journal[15])

	plain := newSQLite(t, nil)
	assert.Equal(t, []string{"nft_journal"}, plain.ShardTables("nft_journal"))
	assert.Equal(t, "sqlite", plain.Driver())
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	database := newSQLite(t, nil)
	require.NoError(t, database.DB(ctx).AutoMigrate(&account{}))

	err := database.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(&account{ID: 1, Name: "alice"}).Error
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = database.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(&account{ID: 2, Name: "bob"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var names []string
	require.NoError(t, database.DB(ctx).Model(&account{}).Order("id").Pluck("name", &names).Error)
	assert.Equal(t, []string{"alice"}, names)

	// 违反唯一索引的写入整体回滚
	err = database.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(&account{ID: 3, Name: "carol"}).Error; err != nil {
			return err
		}
		return tx.Create(&account{ID: 4, Name: "alice"}).Error
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var count int64
	require.NoError(t, database.DB(ctx).Model(&account{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, parseLogLevel("silent"))
	assert.Equal(t, logger.Error, parseLogLevel("error"))
	assert.Equal(t, logger.Warn, parseLogLevel("warn"))
	assert.Equal(t, logger.Info, parseLogLevel("info"))
}
