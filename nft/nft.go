// Package nft 发行、转移并查询按批次连续编号的唯一资产。
//
// Service 把 ledger、storage、idgen、dlock、notify 与 cache 组合起来：
// 每个变更操作持有同一把锁，在一个存储事务中完成全部校验与写入，
// 提交之后才发出通知。
//
//	svc, _ := nft.New(store, &nft.Config{AllocatorFloor: 1},
//	    nft.WithLogger(logger), nft.WithNotifier(notifier))
//
//	_, _ = svc.CreateKind(ctx, "LAND", "gov")
//	batch, err := svc.Issue(ctx, nft.IssueRequest{
//	    To: "alice", Kind: "LAND", Amount: 2,
//	    Coords: []rangeset.Point{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 2}},
//	})
//	// batch == [1,2]
//	moved, err := svc.Transfer(ctx, nft.TransferRequest{From: "alice", To: "bob", Kind: "LAND", Amount: 1})
//	// moved == {[2,2]}
package nft

import (
	"context"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/nftledger/cache"
	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/dlock"
	"github.com/ceyewan/nftledger/idgen"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/notify"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/storage"
	"github.com/ceyewan/nftledger/trace"
	"github.com/ceyewan/nftledger/xerrors"
)

// 指标名称
const (
	MetricOperationsTotal   = "nftledger_nft_operations_total"
	MetricOperationDuration = "nftledger_nft_operation_duration_seconds"
	MetricIssuedTotal       = "nftledger_nft_issued_tokens_total"
)

// 操作名，用于指标与日志
const (
	opCreate     = "create"
	opIssue      = "issue"
	opTransfer   = "transfer"
	opTransferID = "transferid"
)

var kindCode = regexp.MustCompile(`^[A-Z]{1,7}$`)

// Service 资产服务，可并发使用
type Service struct {
	store     storage.Storage
	cfg       *Config
	ledger    *ledger.Ledger
	locker    dlock.Locker
	ownLocker bool
	notifier  notify.Notifier
	cache     cache.Cache
	allocator idgen.Allocator
	logger    clog.Logger
	tracer    oteltrace.Tracer
	clock     func() time.Time

	ops     metrics.Counter
	latency metrics.Histogram
	issued  metrics.Counter
}

// New 创建服务
func New(store storage.Storage, cfg *Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "nft: storage is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &options{
		logger:   clog.Discard(),
		meter:    metrics.Discard(),
		notifier: notify.Noop(),
		tracer:   otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}
	ownLocker := o.locker == nil
	if ownLocker {
		locker, err := dlock.New(&dlock.Config{Driver: dlock.DriverLocal}, dlock.WithLogger(o.logger), dlock.WithMeter(o.meter))
		if err != nil {
			return nil, err
		}
		o.locker = locker
	}

	l, err := ledger.New(ledger.WithLogger(o.logger), ledger.WithMeter(o.meter))
	if err != nil {
		return nil, err
	}
	ops, err := o.meter.Counter(MetricOperationsTotal, "变更操作次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create operations counter")
	}
	latency, err := o.meter.Histogram(MetricOperationDuration, "变更操作耗时（含等待锁）", metrics.WithUnit("s"))
	if err != nil {
		return nil, xerrors.Wrap(err, "create operation duration histogram")
	}
	issued, err := o.meter.Counter(MetricIssuedTotal, "已发行的资产数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create issued counter")
	}

	return &Service{
		store:     store,
		cfg:       cfg,
		ledger:    l,
		locker:    o.locker,
		ownLocker: ownLocker,
		notifier:  o.notifier,
		cache:     o.cache,
		allocator: o.allocator,
		logger:    o.logger.WithNamespace("nft"),
		tracer:    o.tracer.Tracer(trace.TracerName + "/nft"),
		clock:     time.Now,
		ops:       ops,
		latency:   latency,
		issued:    issued,
	}, nil
}

// mutate 持锁并在一个事务中执行 fn
func (s *Service) mutate(ctx context.Context, op string, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "nft."+op, oteltrace.WithAttributes(attribute.String("nft.operation", op)))
	defer func() {
		labels := []metrics.Label{metrics.L(metrics.LabelOperation, op), metrics.Outcome(err)}
		s.ops.Inc(ctx, labels...)
		s.latency.Record(ctx, time.Since(start).Seconds(), labels...)
		trace.MarkSpanError(span, err)
		span.End()
	}()

	if err := s.locker.Lock(ctx, s.cfg.LockKey); err != nil {
		return xerrors.Wrapf(err, "%s: acquire lock", op)
	}
	defer func() {
		if uerr := s.locker.Unlock(context.WithoutCancel(ctx), s.cfg.LockKey); uerr != nil {
			s.logger.ErrorContext(ctx, "release lock", clog.String("operation", op), clog.Error(uerr))
		}
	}()

	return s.store.Transaction(ctx, fn)
}

// allocatorFor 返回本次事务使用的分配器
func (s *Service) allocatorFor(tx storage.Tx) idgen.Allocator {
	if s.allocator != nil {
		return s.allocator
	}
	return idgen.NewStored(tx, s.cfg.AllocatorName, s.cfg.AllocatorFloor)
}

// publish 提交之后发出通知，失败只记日志
func (s *Service) publish(ctx context.Context, event notify.Event) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "notify failed",
			clog.String("type", string(event.Type)),
			clog.String("to", event.To),
			clog.Error(err),
		)
	}
}

func (s *Service) checkAccount(role, account string) error {
	if account == "" || len(account) > s.cfg.MaxAccountLen {
		return xerrors.Wrapf(ErrInvalidAccount, "%s %q", role, account)
	}
	return nil
}

func (s *Service) checkMemo(memo string) error {
	if len(memo) > s.cfg.MaxMemoLen {
		return xerrors.Wrapf(ErrMemoTooLong, "%d bytes, limit %d", len(memo), s.cfg.MaxMemoLen)
	}
	return nil
}

func checkKind(code string) error {
	if !kindCode.MatchString(code) {
		return xerrors.Wrapf(ErrInvalidKind, "%q", code)
	}
	return nil
}

// loadKind 事务内读取资产类型，不存在时返回 ErrKindNotFound
func loadKind(ctx context.Context, tx storage.Tx, code string) (*storage.Kind, error) {
	kind, err := tx.GetKind(ctx, code)
	if err != nil {
		return nil, xerrors.Wrapf(err, "get kind %s", code)
	}
	if kind == nil {
		return nil, xerrors.WithCode(xerrors.Wrapf(ErrKindNotFound, "%s", code), CodeKindNotFound)
	}
	return kind, nil
}

// Balance 账户持有某类资产的数量
func (s *Service) Balance(ctx context.Context, account, kind string) (n uint64, err error) {
	err = s.store.Transaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		n, err = s.ledger.Bind(tx).Balance(ctx, ledger.Key{Account: account, Kind: kind})
		return err
	})
	return n, err
}

// Holdings 账户持有的标识符集合，没有持有时为空集合
func (s *Service) Holdings(ctx context.Context, account, kind string) (ids rangeset.Set, err error) {
	err = s.store.Transaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		rec, err := s.ledger.Bind(tx).Record(ctx, ledger.Key{Account: account, Kind: kind})
		if xerrors.Is(err, ledger.ErrRecordNotFound) {
			ids = rangeset.Set{}
			return nil
		}
		if err != nil {
			return err
		}
		ids = rec.Owned
		return nil
	})
	return ids, err
}

// Token 按标识符读取资产
func (s *Service) Token(ctx context.Context, id uint64) (tok *storage.Token, err error) {
	err = s.store.Transaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		tok, err = tx.GetToken(ctx, id)
		if err != nil {
			return err
		}
		if tok == nil {
			return xerrors.Wrapf(ErrTokenNotFound, "id %d", id)
		}
		return nil
	})
	return tok, err
}

// History 资产类型最近的操作流水，按时间倒序；limit <= 0 时使用 Config.HistoryLimit
func (s *Service) History(ctx context.Context, code string, limit int) (entries []storage.Entry, err error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	err = s.store.Transaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		kind, err := loadKind(ctx, tx, code)
		if err != nil {
			return err
		}
		entries, err = tx.ListJournal(ctx, kind.ID, limit)
		return err
	})
	return entries, err
}

// Close 释放服务自己创建的锁，存储、缓存与通知由调用方关闭
func (s *Service) Close() error {
	if !s.ownLocker {
		return nil
	}
	return s.locker.Close()
}
