package storage

import (
	"context"
	"sync"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/xerrors"
)

// memory 进程内存储
//
// 同一时刻只有一个事务在执行；事务内的每次写入都登记一个撤销函数，
// fn 失败或 panic 时按逆序执行，恢复到事务开始前的状态。
type memory struct {
	mu     sync.Mutex
	closed bool
	opts   *options

	records  map[ledger.Key]*ledger.Record
	counters map[string]uint64
	kinds    map[string]*Kind
	tokens   map[uint64]*Token
	coords   map[rangeset.Point]uint64
	journal  []Entry

	nextKindID  uint64
	nextEntryID uint64
}

// NewMemory 创建进程内存储
func NewMemory(opts ...Option) Storage {
	return &memory{
		opts:        applyOptions(opts),
		records:     make(map[ledger.Key]*ledger.Record),
		counters:    make(map[string]uint64),
		kinds:       make(map[string]*Kind),
		tokens:      make(map[uint64]*Token),
		coords:      make(map[rangeset.Point]uint64),
		nextKindID:  1,
		nextEntryID: 1,
	}
}

func (m *memory) Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	tx := &memoryTx{m: m}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
		if err != nil {
			tx.rollback()
			m.opts.logger.DebugContext(ctx, "transaction rolled back",
				clog.Int("writes", len(tx.undo)), clog.Error(err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, tx)
}

func (m *memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memoryTx struct {
	m    *memory
	undo []func()
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// remember 登记 map 中 key 的当前值，回滚时恢复（不存在则删除）
func remember[K comparable, V any](tx *memoryTx, mp map[K]V, key K) {
	old, ok := mp[key]
	tx.undo = append(tx.undo, func() {
		if ok {
			mp[key] = old
		} else {
			delete(mp, key)
		}
	})
}

func (tx *memoryTx) GetRecord(_ context.Context, key ledger.Key) (*ledger.Record, error) {
	return tx.m.records[key].Clone(), nil
}

func (tx *memoryTx) PutRecord(_ context.Context, rec *ledger.Record) error {
	remember(tx, tx.m.records, rec.Key)
	tx.m.records[rec.Key] = rec.Clone()
	return nil
}

func (tx *memoryTx) DeleteRecord(_ context.Context, key ledger.Key) error {
	remember(tx, tx.m.records, key)
	delete(tx.m.records, key)
	return nil
}

func (tx *memoryTx) LoadCounter(_ context.Context, name string) (uint64, bool, error) {
	v, ok := tx.m.counters[name]
	return v, ok, nil
}

func (tx *memoryTx) StoreCounter(_ context.Context, name string, value uint64) error {
	remember(tx, tx.m.counters, name)
	tx.m.counters[name] = value
	return nil
}

func (tx *memoryTx) GetKind(_ context.Context, code string) (*Kind, error) {
	k, ok := tx.m.kinds[code]
	if !ok {
		return nil, nil
	}
	out := *k
	return &out, nil
}

func (tx *memoryTx) CreateKind(_ context.Context, kind *Kind) error {
	if _, ok := tx.m.kinds[kind.Code]; ok {
		return xerrors.Wrapf(ErrDuplicate, "kind %s", kind.Code)
	}
	remember(tx, tx.m.kinds, kind.Code)
	id := tx.m.nextKindID
	tx.m.nextKindID++
	tx.undo = append(tx.undo, func() { tx.m.nextKindID = id })

	if kind.CreatedAt.IsZero() {
		kind.CreatedAt = tx.m.opts.clock()
	}
	kind.ID = id
	stored := *kind
	tx.m.kinds[kind.Code] = &stored
	return nil
}

func (tx *memoryTx) UpdateSupply(_ context.Context, code string, supply uint64) error {
	k, ok := tx.m.kinds[code]
	if !ok {
		return xerrors.Wrapf(ErrNotFound, "kind %s", code)
	}
	remember(tx, tx.m.kinds, code)
	updated := *k
	updated.Supply = supply
	tx.m.kinds[code] = &updated
	return nil
}

func (tx *memoryTx) GetToken(_ context.Context, id uint64) (*Token, error) {
	t, ok := tx.m.tokens[id]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (tx *memoryTx) PutTokens(_ context.Context, tokens []Token) error {
	// 先整体检查，冲突时不留下部分写入
	seen := make(map[rangeset.Point]struct{}, len(tokens))
	ids := make(map[uint64]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := tx.m.tokens[t.ID]; ok {
			return xerrors.Wrapf(ErrDuplicate, "token %d", t.ID)
		}
		if _, ok := ids[t.ID]; ok {
			return xerrors.Wrapf(ErrDuplicate, "token %d repeated in batch", t.ID)
		}
		ids[t.ID] = struct{}{}
		if _, ok := tx.m.coords[t.Coords]; ok {
			return xerrors.Wrapf(ErrDuplicate, "coordinates %s", t.Coords)
		}
		if _, ok := seen[t.Coords]; ok {
			return xerrors.Wrapf(ErrDuplicate, "coordinates %s repeated in batch", t.Coords)
		}
		seen[t.Coords] = struct{}{}
	}

	now := tx.m.opts.clock()
	for _, t := range tokens {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		remember(tx, tx.m.tokens, t.ID)
		remember(tx, tx.m.coords, t.Coords)
		stored := t
		tx.m.tokens[t.ID] = &stored
		tx.m.coords[t.Coords] = t.ID
	}
	return nil
}

func (tx *memoryTx) FindTokenByCoords(ctx context.Context, p rangeset.Point) (*Token, error) {
	id, ok := tx.m.coords[p]
	if !ok {
		return nil, nil
	}
	return tx.GetToken(ctx, id)
}

func (tx *memoryTx) SetOwner(_ context.Context, ids rangeset.Set, owner string) error {
	for id := range ids.IDs() {
		if _, ok := tx.m.tokens[id]; !ok {
			return xerrors.Wrapf(ErrNotFound, "token %d", id)
		}
	}
	for id := range ids.IDs() {
		remember(tx, tx.m.tokens, id)
		updated := *tx.m.tokens[id]
		updated.Owner = owner
		tx.m.tokens[id] = &updated
	}
	return nil
}

func (tx *memoryTx) AppendJournal(_ context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = tx.m.opts.clock()
	}
	entry.ID = tx.m.nextEntryID
	stored := *entry
	stored.IDs = entry.IDs.Clone()

	n := len(tx.m.journal)
	tx.m.nextEntryID++
	tx.m.journal = append(tx.m.journal, stored)
	tx.undo = append(tx.undo, func() {
		tx.m.journal = tx.m.journal[:n]
		tx.m.nextEntryID = stored.ID
	})
	return nil
}

func (tx *memoryTx) ListJournal(_ context.Context, kindID uint64, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "journal limit must be positive")
	}
	var out []Entry
	for i := len(tx.m.journal) - 1; i >= 0 && len(out) < limit; i-- {
		e := tx.m.journal[i]
		if e.KindID != kindID {
			continue
		}
		e.IDs = e.IDs.Clone()
		out = append(out, e)
	}
	return out, nil
}
