// Package ledger 维护账户在每个资产类型下持有的标识符区间集合。
//
// Ledger 本身无状态，只持有日志与指标；通过 Bind 绑定到一个事务范围内的 Store 后
// 得到 Book，再执行 Credit / Debit / DebitSingle。
//
// 每个操作先完成全部校验再修改记录：任何失败都不会留下部分写入。
// 读到的记录如果数量与区间集合不一致，操作被拒绝并返回 ErrCorrupted，
// 记录本身不会被自动修复。
//
//	l, _ := ledger.New(ledger.WithLogger(logger), ledger.WithMeter(meter))
//	book := l.Bind(tx)
//	if err := book.Credit(ctx, ledger.Key{Account: "alice", Kind: "LAND"}, 5, rangeset.Of(1, 5)); err != nil {
//	    return err
//	}
//	moved, err := book.Debit(ctx, ledger.Key{Account: "alice", Kind: "LAND"}, 2) // {[4,5]}
package ledger

import (
	"context"
	"math"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/xerrors"
)

// 指标名称
const (
	MetricCreditsTotal    = "nftledger_ledger_credits_total"
	MetricDebitsTotal     = "nftledger_ledger_debits_total"
	MetricRecordIntervals = "nftledger_ledger_record_intervals"
)

// Ledger 账户持有记录的操作入口，可并发共享
type Ledger struct {
	logger    clog.Logger
	credits   metrics.Counter
	debits    metrics.Counter
	intervals metrics.Histogram
}

// New 创建 Ledger
func New(opts ...Option) (*Ledger, error) {
	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	credits, err := o.meter.Counter(MetricCreditsTotal, "账户入账次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create credits counter")
	}
	debits, err := o.meter.Counter(MetricDebitsTotal, "账户出账次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create debits counter")
	}
	intervals, err := o.meter.Histogram(MetricRecordIntervals, "修改后记录包含的区间数",
		metrics.WithUnit("{interval}"),
		metrics.WithBuckets(1, 2, 4, 8, 16, 64, 256, 1024),
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "create intervals histogram")
	}

	return &Ledger{
		logger:    o.logger,
		credits:   credits,
		debits:    debits,
		intervals: intervals,
	}, nil
}

// Bind 绑定到一个 Store（通常是一个存储事务）
func (l *Ledger) Bind(store Store) *Book {
	return &Book{ledger: l, store: store}
}

// Book 绑定了 Store 的 Ledger 视图，不可跨事务复用
type Book struct {
	ledger *Ledger
	store  Store
}

// Record 读取记录，不存在时返回 ErrRecordNotFound
func (b *Book) Record(ctx context.Context, key Key) (*Record, error) {
	rec, err := b.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, xerrors.Wrapf(ErrRecordNotFound, "%s", key)
	}
	return rec, nil
}

// Balance 返回持有数量，没有记录时为 0
func (b *Book) Balance(ctx context.Context, key Key) (uint64, error) {
	rec, err := b.load(ctx, key)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// Credit 将 ids 记入账户，quantity 必须等于 ids.Len()
//
// 记录不存在时先以数量 0、空集合创建，再合并 ids。
// ids 与账户已持有的标识符重叠时返回 ErrAlreadyOwned。
func (b *Book) Credit(ctx context.Context, key Key, quantity uint64, ids rangeset.Set) (err error) {
	defer func() { b.ledger.observe(ctx, b.ledger.credits, key, err) }()

	if quantity == 0 {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidCredit, "%s: zero quantity", key), CodeInvalidCredit)
	}
	if err := ids.Validate(); err != nil {
		return xerrors.Wrapf(err, "credit %s", key)
	}
	if n := ids.Len(); n != quantity {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidCredit, "%s: quantity %d but %d identifiers", key, quantity, n), CodeInvalidCredit)
	}

	rec, err := b.load(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &Record{Key: key}
	}
	if rec.Owned.Overlaps(ids) {
		return xerrors.Wrapf(ErrAlreadyOwned, "%s already owns part of %s", key, ids)
	}
	if rec.Quantity > math.MaxUint64-quantity {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidCredit, "%s: quantity overflow", key), CodeInvalidCredit)
	}

	rec.Owned.Merge(ids)
	rec.Quantity += quantity
	if err := b.store.PutRecord(ctx, rec); err != nil {
		return xerrors.Wrapf(err, "put record %s", key)
	}

	b.ledger.intervals.Record(ctx, float64(len(rec.Owned)), metrics.L(metrics.LabelKind, key.Kind))
	b.ledger.logger.DebugContext(ctx, "credited",
		clog.String("account", key.Account),
		clog.String("kind", key.Kind),
		clog.Uint64("quantity", quantity),
		clog.Stringer("ids", ids),
		clog.Uint64("balance", rec.Quantity),
	)
	return nil
}

// Debit 从账户移除 quantity 个标识符，返回被移除的部分（升序）
//
// 优先移除最大的标识符。移除全部时删除记录；quantity 为 0 时返回空集合。
func (b *Book) Debit(ctx context.Context, key Key, quantity uint64) (removed rangeset.Set, err error) {
	defer func() { b.ledger.observe(ctx, b.ledger.debits, key, err) }()

	rec, err := b.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, xerrors.WithCode(xerrors.Wrapf(ErrInsufficientBalance, "%s: no record", key), CodeInsufficientBalance)
	}
	if quantity > rec.Quantity {
		return nil, xerrors.WithCode(
			xerrors.Wrapf(ErrInsufficientBalance, "%s: debit %d, balance %d", key, quantity, rec.Quantity),
			CodeInsufficientBalance)
	}
	if quantity == 0 {
		return rangeset.Set{}, nil
	}

	if quantity == rec.Quantity {
		if err := b.store.DeleteRecord(ctx, key); err != nil {
			return nil, xerrors.Wrapf(err, "delete record %s", key)
		}
		b.logDebit(ctx, key, quantity, rec.Owned, 0)
		return rec.Owned, nil
	}

	removed, err = rec.Owned.SubtractTail(quantity)
	if err != nil {
		// 数量已校验过，走到这里说明记录与集合不一致
		return nil, b.ledger.corrupted(ctx, key, err)
	}
	rec.Quantity -= quantity
	if err := b.store.PutRecord(ctx, rec); err != nil {
		return nil, xerrors.Wrapf(err, "put record %s", key)
	}

	b.ledger.intervals.Record(ctx, float64(len(rec.Owned)), metrics.L(metrics.LabelKind, key.Kind))
	b.logDebit(ctx, key, quantity, removed, rec.Quantity)
	return removed, nil
}

// DebitSingle 从账户移除指定的一个标识符
//
// 该标识符是账户唯一持有的标识符时删除记录，否则收缩或拆分所在区间。
func (b *Book) DebitSingle(ctx context.Context, key Key, id uint64) (err error) {
	defer func() { b.ledger.observe(ctx, b.ledger.debits, key, err) }()

	rec, err := b.load(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil || !rec.Owned.Contains(id) {
		return xerrors.WithCode(xerrors.Wrapf(ErrIdentifierNotFound, "%s does not own %d", key, id), CodeIdentifierNotFound)
	}

	if rec.Quantity == 1 {
		if err := b.store.DeleteRecord(ctx, key); err != nil {
			return xerrors.Wrapf(err, "delete record %s", key)
		}
		b.logDebit(ctx, key, 1, rangeset.Of(id, id), 0)
		return nil
	}

	if err := rec.Owned.Remove(id); err != nil {
		return b.ledger.corrupted(ctx, key, err)
	}
	rec.Quantity--
	if err := b.store.PutRecord(ctx, rec); err != nil {
		return xerrors.Wrapf(err, "put record %s", key)
	}

	b.ledger.intervals.Record(ctx, float64(len(rec.Owned)), metrics.L(metrics.LabelKind, key.Kind))
	b.logDebit(ctx, key, 1, rangeset.Of(id, id), rec.Quantity)
	return nil
}

// load 读取记录并做一致性检查，返回的记录可被调用方修改
func (b *Book) load(ctx context.Context, key Key) (*Record, error) {
	rec, err := b.store.GetRecord(ctx, key)
	if err != nil {
		return nil, xerrors.Wrapf(err, "get record %s", key)
	}
	if rec == nil {
		return nil, nil
	}
	if err := rec.check(); err != nil {
		return nil, b.ledger.corrupted(ctx, key, err)
	}
	return rec, nil
}

func (b *Book) logDebit(ctx context.Context, key Key, quantity uint64, removed rangeset.Set, balance uint64) {
	b.ledger.logger.DebugContext(ctx, "debited",
		clog.String("account", key.Account),
		clog.String("kind", key.Kind),
		clog.Uint64("quantity", quantity),
		clog.Stringer("removed", removed),
		clog.Uint64("balance", balance),
	)
}

func (l *Ledger) corrupted(ctx context.Context, key Key, cause error) error {
	err := xerrors.WithCode(xerrors.Wrapf(ErrCorrupted, "%s: %v", key, cause), CodeRecordCorrupted)
	l.logger.ErrorContext(ctx, "ownership record corrupted",
		clog.String("account", key.Account),
		clog.String("kind", key.Kind),
		clog.Error(err),
	)
	return err
}

func (l *Ledger) observe(ctx context.Context, c metrics.Counter, key Key, err error) {
	c.Inc(ctx, metrics.L(metrics.LabelKind, key.Kind), metrics.Outcome(err))
}
