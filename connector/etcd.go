package connector

import (
	"context"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

type etcdConnector struct {
	*base
	cfg *EtcdConfig

	mu     sync.RWMutex
	client *clientv3.Client
}

// NewEtcd 创建 Etcd 连接器，客户端在 Connect 时创建
func NewEtcd(cfg *EtcdConfig, opts ...Option) (EtcdConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "etcd config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b, err := newBase("etcd", cfg.Name, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	return &etcdConnector{base: b, cfg: cfg}, nil
}

// Connect 创建客户端并读取集群状态确认可用
func (c *etcdConnector) Connect(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}
	defer func() { c.observeConnect(ctx, err) }()

	c.logger.InfoContext(ctx, "connecting", clog.Any("endpoints", c.cfg.Endpoints))

	client, err := clientv3.New(clientv3.Config{
		Endpoints:            c.cfg.Endpoints,
		Username:             c.cfg.Username,
		Password:             c.cfg.Password,
		DialTimeout:          c.cfg.DialTimeout,
		DialKeepAliveTime:    c.cfg.KeepAliveTime,
		DialKeepAliveTimeout: c.cfg.KeepAliveTimeout,
		Context:              context.WithoutCancel(ctx),
	})
	if err != nil {
		return c.connectErr(ctx, err, "new client")
	}

	if err := c.probe(ctx, client); err != nil {
		_ = client.Close()
		return c.connectErr(ctx, err, "status")
	}

	c.client = client
	c.logger.InfoContext(ctx, "connected", clog.Any("endpoints", c.cfg.Endpoints))
	return nil
}

func (c *etcdConnector) probe(ctx context.Context, client *clientv3.Client) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	_, err := client.Status(ctx, c.cfg.Endpoints[0])
	return err
}

// Close 关闭客户端
func (c *etcdConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if err != nil {
		c.logger.Error("close failed", clog.Error(err))
		return err
	}
	c.logger.Info("closed")
	return nil
}

// HealthCheck 查询第一个端点的状态
func (c *etcdConnector) HealthCheck(ctx context.Context) error {
	client := c.GetClient()
	if client == nil {
		return c.clientNil()
	}
	if err := c.probe(ctx, client); err != nil {
		return c.healthErr(ctx, err)
	}
	c.healthy.Store(true)
	return nil
}

// GetClient 返回 Etcd 客户端
func (c *etcdConnector) GetClient() *clientv3.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
