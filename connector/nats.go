package connector

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/xerrors"
)

type natsConnector struct {
	*base
	cfg *NATSConfig

	mu   sync.RWMutex
	conn *nats.Conn
}

// NewNATS 创建 NATS 连接器
func NewNATS(cfg *NATSConfig, opts ...Option) (NATSConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "nats config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b, err := newBase("nats", cfg.Name, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	return &natsConnector{base: b, cfg: cfg}, nil
}

func (c *natsConnector) natsOptions() []nats.Option {
	opts := []nats.Option{
		nats.Name(c.cfg.Name),
		nats.Timeout(c.cfg.Timeout),
		nats.ReconnectWait(c.cfg.ReconnectWait),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.PingInterval(c.cfg.PingInterval),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.healthy.Store(false)
			if err != nil {
				c.logger.Warn("disconnected", clog.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.healthy.Store(true)
			c.logger.Info("reconnected", clog.String("url", nc.ConnectedUrl()))
		}),
	}
	if c.cfg.Username != "" {
		opts = append(opts, nats.UserInfo(c.cfg.Username, c.cfg.Password))
	}
	if c.cfg.Token != "" {
		opts = append(opts, nats.Token(c.cfg.Token))
	}
	return opts
}

// Connect 建立连接
func (c *natsConnector) Connect(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	defer func() { c.observeConnect(ctx, err) }()

	c.logger.InfoContext(ctx, "connecting", clog.String("url", c.cfg.URL))
	conn, err := nats.Connect(c.cfg.URL, c.natsOptions()...)
	if err != nil {
		return c.connectErr(ctx, err, "dial")
	}
	c.conn = conn
	c.logger.InfoContext(ctx, "connected", clog.String("url", conn.ConnectedUrl()))
	return nil
}

// Close 刷出缓冲的消息并关闭连接
func (c *natsConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Flush(); err != nil && !xerrors.Is(err, nats.ErrConnectionClosed) {
		c.logger.Warn("flush before close failed", clog.Error(err))
	}
	c.conn.Close()
	c.conn = nil
	c.logger.Info("closed")
	return nil
}

// HealthCheck 检查连接状态并做一次往返
func (c *natsConnector) HealthCheck(ctx context.Context) error {
	conn := c.GetClient()
	if conn == nil {
		return c.clientNil()
	}
	if status := conn.Status(); status != nats.CONNECTED {
		return c.healthErr(ctx, fmt.Errorf("connection status %s", status))
	}
	if err := conn.FlushWithContext(ctx); err != nil {
		return c.healthErr(ctx, err)
	}
	c.healthy.Store(true)
	return nil
}

// GetClient 返回 NATS 连接
func (c *natsConnector) GetClient() *nats.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}
