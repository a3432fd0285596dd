package idgen

import (
	"context"
	"math"
	"strconv"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/connector"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/xerrors"
)

type etcdAllocator struct {
	etcd      connector.EtcdConnector
	cfg       *Config
	logger    clog.Logger
	allocated metrics.Counter
}

// NewEtcd 创建 Etcd 分配器，计数器以十进制字符串保存
func NewEtcd(conn connector.EtcdConnector, cfg *Config, opts ...Option) (Allocator, error) {
	if conn == nil {
		return nil, xerrors.WithCode(ErrConnectorNil, "etcd_connector_nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	allocated, err := o.meter.Counter(MetricAllocatedTotal, "已分配的标识符数量")
	if err != nil {
		return nil, xerrors.Wrap(err, "create allocated counter")
	}

	return &etcdAllocator{
		etcd:      conn,
		cfg:       cfg,
		logger:    o.logger.With(clog.String("component", "allocator"), clog.String("driver", "etcd")),
		allocated: allocated,
	}, nil
}

// load 返回当前值与 ModRevision，键不存在时返回 Floor 与 0
func (a *etcdAllocator) load(ctx context.Context, client *clientv3.Client) (uint64, int64, error) {
	resp, err := client.Get(ctx, a.cfg.Key)
	if err != nil {
		return 0, 0, xerrors.Wrapf(err, "etcd get %s", a.cfg.Key)
	}
	if len(resp.Kvs) == 0 {
		return a.cfg.Floor, 0, nil
	}
	kv := resp.Kvs[0]
	v, err := strconv.ParseUint(string(kv.Value), 10, 64)
	if err != nil {
		return 0, 0, xerrors.Wrapf(xerrors.ErrInternal, "etcd counter %s holds %q", a.cfg.Key, kv.Value)
	}
	return v, kv.ModRevision, nil
}

func (a *etcdAllocator) client() (*clientv3.Client, error) {
	client := a.etcd.GetClient()
	if client == nil {
		return nil, xerrors.WithCode(ErrConnectorNil, "etcd_client_nil")
	}
	return client, nil
}

// Peek 读取计数器
func (a *etcdAllocator) Peek(ctx context.Context) (uint64, error) {
	client, err := a.client()
	if err != nil {
		return 0, err
	}
	v, _, err := a.load(ctx, client)
	return v, err
}

// Advance 读取当前值后以 ModRevision 做比较写入，冲突时重试
func (a *etcdAllocator) Advance(ctx context.Context, n uint64) (uint64, error) {
	if n == 0 {
		return 0, xerrors.Wrap(ErrInvalidInput, "advance by zero")
	}
	client, err := a.client()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < a.cfg.MaxRetries; attempt++ {
		first, rev, err := a.load(ctx, client)
		if err != nil {
			return 0, err
		}
		if n > math.MaxUint64-first {
			return 0, xerrors.WithCode(xerrors.Wrapf(ErrExhausted, "%s: next %d, advance %d", a.cfg.Key, first, n), CodeExhausted)
		}

		// rev 为 0 时要求键仍不存在
		resp, err := client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(a.cfg.Key), "=", rev)).
			Then(clientv3.OpPut(a.cfg.Key, strconv.FormatUint(first+n, 10))).
			Commit()
		if err != nil {
			return 0, xerrors.Wrapf(err, "etcd txn %s", a.cfg.Key)
		}
		if resp.Succeeded {
			a.allocated.Add(ctx, float64(n), metrics.L("driver", "etcd"))
			a.logger.DebugContext(ctx, "advanced", clog.Uint64("first", first), clog.Int("attempt", attempt))
			return first, nil
		}
	}

	a.logger.WarnContext(ctx, "advance gave up", clog.String("key", a.cfg.Key), clog.Int("retries", a.cfg.MaxRetries))
	return 0, xerrors.Wrapf(ErrContention, "%s after %d attempts", a.cfg.Key, a.cfg.MaxRetries)
}
