// Package connector 管理 nftledger 依赖的外部连接：SQLite、MySQL、PostgreSQL、
// Redis、Etcd、NATS 与 Kafka。
//
// 每个连接器遵循相同的生命周期：NewXXX 只校验配置并构造对象，Connect 建立连接
// （幂等），Close 释放资源（幂等）。组件（storage、cache、dlock、idgen、notify）
// 只借用连接器的客户端，不负责关闭；应用层按创建的逆序释放。
//
//	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:6379"},
//	    connector.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//	if err := conn.Connect(ctx); err != nil {
//	    return err
//	}
//	rdb := conn.GetClient()
package connector

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gorm.io/gorm"
)

// Connector 所有连接器的公共行为，方法均并发安全
type Connector interface {
	// Connect 建立连接，重复调用直接返回 nil
	Connect(ctx context.Context) error
	// Close 关闭连接，重复调用直接返回 nil
	Close() error
	// HealthCheck 主动探测连接状态，并刷新 IsHealthy 的缓存结果
	HealthCheck(ctx context.Context) error
	// IsHealthy 返回最近一次探测的结果
	IsHealthy() bool
	// Name 连接器实例名，用于日志与指标
	Name() string
}

// TypedConnector 提供类型安全的客户端访问
//
// Connect 之前或 Close 之后，GetClient 可能返回 nil。
type TypedConnector[T any] interface {
	Connector
	GetClient() T
}

// RedisConnector Redis 连接器
type RedisConnector interface {
	TypedConnector[*redis.Client]
}

// DatabaseConnector 基于 GORM 的关系型数据库连接器（SQLite、MySQL、PostgreSQL）
type DatabaseConnector interface {
	TypedConnector[*gorm.DB]
	// Driver 返回驱动名：sqlite、mysql 或 postgresql
	Driver() string
}

// EtcdConnector Etcd 连接器
type EtcdConnector interface {
	TypedConnector[*clientv3.Client]
}

// NATSConnector NATS 连接器，内置断线重连
type NATSConnector interface {
	TypedConnector[*nats.Conn]
}

// KafkaConnector Kafka 连接器，基于 franz-go
type KafkaConnector interface {
	TypedConnector[*kgo.Client]
}
