package connector

import (
	"context"
	"sync/atomic"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/xerrors"
)

// MetricConnectsTotal 连接尝试次数，按 connector 与 outcome 分组
const MetricConnectsTotal = "nftledger_connector_connects_total"

// base 各连接器共享的名称、日志与健康状态
type base struct {
	kind     string
	name     string
	logger   clog.Logger
	connects metrics.Counter
	healthy  atomic.Bool
}

func newBase(kind, name string, o *options) (*base, error) {
	connects, err := o.meter.Counter(MetricConnectsTotal, "外部连接建立尝试次数")
	if err != nil {
		return nil, xerrors.Wrapf(err, "%s connector: create counter", kind)
	}
	return &base{
		kind:     kind,
		name:     name,
		logger:   o.logger.With(clog.String("connector", kind), clog.String("name", name)),
		connects: connects,
	}, nil
}

func (b *base) observeConnect(ctx context.Context, err error) {
	b.connects.Inc(ctx, metrics.L("connector", b.kind), metrics.Outcome(err))
	b.healthy.Store(err == nil)
}

// connectErr 记录日志并包装为 ErrConnection
func (b *base) connectErr(ctx context.Context, err error, step string) error {
	b.logger.ErrorContext(ctx, "connect failed", clog.String("step", step), clog.Error(err))
	return xerrors.Wrapf(ErrConnection, "%s connector[%s]: %s: %v", b.kind, b.name, step, err)
}

func (b *base) healthErr(ctx context.Context, err error) error {
	b.healthy.Store(false)
	b.logger.WarnContext(ctx, "health check failed", clog.Error(err))
	return xerrors.Wrapf(ErrHealthCheck, "%s connector[%s]: %v", b.kind, b.name, err)
}

func (b *base) clientNil() error {
	b.healthy.Store(false)
	return xerrors.Wrapf(ErrClientNil, "%s connector[%s]", b.kind, b.name)
}

// IsHealthy 返回最近一次探测的结果
func (b *base) IsHealthy() bool {
	return b.healthy.Load()
}

// Name 返回连接器名称
func (b *base) Name() string {
	return b.name
}
