// Package db 在 GORM 之上提供事务、SQL 日志、链路追踪与分表能力。
//
// db 借用 connector.DatabaseConnector 的连接，不负责其生命周期：
//
//	conn, _ := connector.NewSQLite(&connector.SQLiteConfig{Path: "ledger.db"})
//	_ = conn.Connect(ctx)
//	defer conn.Close()
//
//	database, _ := db.New(conn, &db.Config{
//	    EnableSharding: true,
//	    ShardingRules: []db.ShardingRule{
//	        {ShardingKey: "kind_id", NumberOfShards: 8, Tables: []string{"nft_journal"}},
//	    },
//	}, db.WithLogger(logger))
//
//	err := database.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
//	    return tx.Create(&row).Error
//	})
//
// 分表基于 gorm.io/sharding：查询必须带上分表键，物理表名可以通过
// ShardTables 得到，用于建表。
package db

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	"gorm.io/sharding"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/xerrors"
)

// 指标名称
const (
	MetricTransactionsTotal   = "nftledger_db_transactions_total"
	MetricTransactionDuration = "nftledger_db_transaction_duration_seconds"
)

// DB 数据库组件
type DB interface {
	// DB 返回绑定了 ctx 的 *gorm.DB
	DB(ctx context.Context) *gorm.DB

	// Transaction 在一个事务中执行 fn，fn 返回错误或 panic 时回滚
	// tx 仅在 fn 内有效
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error

	// Driver 返回底层驱动名
	Driver() string

	// ShardTables 返回逻辑表对应的物理表名；未分表时只返回逻辑表名本身
	ShardTables(table string) []string

	// Close 释放组件持有的资源，不关闭连接器
	Close() error
}

type database struct {
	client    *gorm.DB
	driver    string
	cfg       *Config
	logger    clog.Logger
	txTotal   metrics.Counter
	txLatency metrics.Histogram
}

// New 创建数据库组件
func New(conn connector.DatabaseConnector, cfg *Config, opts ...Option) (DB, error) {
	if conn == nil || conn.GetClient() == nil {
		return nil, ErrConnectorRequired
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	// Session 复制一份配置，SQL 日志只作用于本组件；插件注册在共享的回调链上，
	// 同一个连接器只能创建一个启用了追踪或分表的 DB
	gormDB := conn.GetClient().Session(&gorm.Session{
		NewDB:  true,
		Logger: newGormLogger(o.logger, cfg),
	})
	// 驱动的唯一约束错误统一转换为 gorm.ErrDuplicatedKey
	gormDB.TranslateError = true

	if o.tracer != nil {
		if err := gormDB.Use(otelgorm.NewPlugin(otelgorm.WithTracerProvider(o.tracer))); err != nil {
			return nil, xerrors.Wrap(err, "register otelgorm plugin")
		}
	}

	if cfg.EnableSharding {
		// 一个 sharding 插件只接受一份配置，所有规则的表合并注册，validate 已保证规则一致
		first := cfg.ShardingRules[0]
		var tables []any
		for _, rule := range cfg.ShardingRules {
			for _, table := range rule.Tables {
				tables = append(tables, table)
			}
		}
		middleware := sharding.Register(sharding.Config{
			ShardingKey:         first.ShardingKey,
			NumberOfShards:      first.NumberOfShards,
			PrimaryKeyGenerator: sharding.PKSnowflake,
		}, tables...)
		if err := gormDB.Use(middleware); err != nil {
			return nil, xerrors.Wrapf(err, "register sharding middleware for %d tables", len(tables))
		}
	}

	txTotal, err := o.meter.Counter(MetricTransactionsTotal, "数据库事务次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create transactions counter")
	}
	txLatency, err := o.meter.Histogram(MetricTransactionDuration, "数据库事务耗时", metrics.WithUnit("s"))
	if err != nil {
		return nil, xerrors.Wrap(err, "create transaction duration histogram")
	}

	return &database{
		client:    gormDB,
		driver:    conn.Driver(),
		cfg:       cfg,
		logger:    o.logger,
		txTotal:   txTotal,
		txLatency: txLatency,
	}, nil
}

func (d *database) DB(ctx context.Context) *gorm.DB {
	return d.client.WithContext(ctx)
}

func (d *database) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.Outcome(err)
		d.txTotal.Inc(ctx, outcome)
		d.txLatency.Record(ctx, time.Since(start).Seconds(), outcome)
	}()

	return d.client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
}

func (d *database) Driver() string {
	return d.driver
}

func (d *database) ShardTables(table string) []string {
	if !d.cfg.EnableSharding {
		return []string{table}
	}
	for _, rule := range d.cfg.ShardingRules {
		for _, t := range rule.Tables {
			if t != table {
				continue
			}
			out := make([]string, rule.NumberOfShards)
			for i := range rule.NumberOfShards {
				out[i] = table + rule.suffix(i)
			}
			return out
		}
	}
	return []string{table}
}

func (d *database) Close() error {
	return nil
}
