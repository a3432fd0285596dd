package connector

import (
	"context"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

// 驱动名
const (
	DriverSQLite     = "sqlite"
	DriverMySQL      = "mysql"
	DriverPostgreSQL = "postgresql"
)

type pool struct {
	maxIdle     int
	maxOpen     int
	maxLifetime time.Duration
}

type gormConnector struct {
	*base
	dialector func() gorm.Dialector
	pool      pool
	target    clog.Field

	mu sync.RWMutex
	db *gorm.DB
}

// NewSQLite 创建 SQLite 连接器，实际连接在 Connect 时建立
func NewSQLite(cfg *SQLiteConfig, opts ...Option) (DatabaseConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "sqlite config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newGorm(DriverSQLite, cfg.Name, applyOptions(opts),
		func() gorm.Dialector { return sqlite.Open(cfg.Path) },
		pool{maxIdle: cfg.MaxOpenConns, maxOpen: cfg.MaxOpenConns},
		clog.String("path", cfg.Path))
}

// NewMySQL 创建 MySQL 连接器，实际连接在 Connect 时建立
func NewMySQL(cfg *MySQLConfig, opts ...Option) (DatabaseConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "mysql config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newGorm(DriverMySQL, cfg.Name, applyOptions(opts),
		func() gorm.Dialector { return mysql.Open(cfg.dsn()) },
		pool{maxIdle: cfg.MaxIdleConns, maxOpen: cfg.MaxOpenConns, maxLifetime: cfg.ConnMaxLifetime},
		clog.String("host", cfg.Host))
}

// NewPostgreSQL 创建 PostgreSQL 连接器，实际连接在 Connect 时建立
func NewPostgreSQL(cfg *PostgreSQLConfig, opts ...Option) (DatabaseConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "postgresql config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newGorm(DriverPostgreSQL, cfg.Name, applyOptions(opts),
		func() gorm.Dialector { return postgres.Open(cfg.dsn()) },
		pool{maxIdle: cfg.MaxIdleConns, maxOpen: cfg.MaxOpenConns, maxLifetime: cfg.ConnMaxLifetime},
		clog.String("host", cfg.Host))
}

func newGorm(driver, name string, o *options, dialector func() gorm.Dialector, p pool, target clog.Field) (*gormConnector, error) {
	b, err := newBase(driver, name, o)
	if err != nil {
		return nil, err
	}
	return &gormConnector{base: b, dialector: dialector, pool: p, target: target}, nil
}

// Connect 打开数据库并 Ping
func (c *gormConnector) Connect(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}
	defer func() { c.observeConnect(ctx, err) }()

	c.logger.InfoContext(ctx, "connecting", c.target)

	// SQL 日志由 db 组件接管
	db, err := gorm.Open(c.dialector(), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return c.connectErr(ctx, err, "open")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return c.connectErr(ctx, err, "get sql.DB")
	}
	if c.pool.maxIdle > 0 {
		sqlDB.SetMaxIdleConns(c.pool.maxIdle)
	}
	if c.pool.maxOpen > 0 {
		sqlDB.SetMaxOpenConns(c.pool.maxOpen)
	}
	if c.pool.maxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(c.pool.maxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return c.connectErr(ctx, err, "ping")
	}

	c.db = db
	c.logger.InfoContext(ctx, "connected", c.target)
	return nil
}

// Close 关闭底层连接池
func (c *gormConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return xerrors.Wrapf(err, "%s connector[%s]: get sql.DB", c.kind, c.name)
	}
	c.db = nil
	if err := sqlDB.Close(); err != nil {
		c.logger.Error("close failed", clog.Error(err))
		return err
	}
	c.logger.Info("closed")
	return nil
}

// HealthCheck Ping 数据库
func (c *gormConnector) HealthCheck(ctx context.Context) error {
	db := c.GetClient()
	if db == nil {
		return c.clientNil()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return c.healthErr(ctx, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.healthErr(ctx, err)
	}
	c.healthy.Store(true)
	return nil
}

// GetClient 返回 GORM 客户端
func (c *gormConnector) GetClient() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Driver 返回驱动名
func (c *gormConnector) Driver() string {
	return c.kind
}
