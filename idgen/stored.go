package idgen

import (
	"context"
	"math"

	"github.com/ceyewan/nftledger/xerrors"
)

// CounterStore 持久化命名计数器，通常由一个存储事务实现
type CounterStore interface {
	// LoadCounter 读取计数器，不存在时 ok 为 false
	LoadCounter(ctx context.Context, name string) (value uint64, ok bool, err error)
	// StoreCounter 写入计数器
	StoreCounter(ctx context.Context, name string, value uint64) error
}

// Stored 将计数器保存在 CounterStore 中的分配器
//
// 它与调用方共享同一个事务：事务回滚时 Advance 的效果一并撤销，
// 因此失败的发行不会消耗标识符。Stored 不加锁，串行由调用方保证。
type Stored struct {
	store CounterStore
	name  string
	floor uint64
}

// NewStored 创建基于 CounterStore 的分配器，计数器不存在时从 floor 开始
func NewStored(store CounterStore, name string, floor uint64) *Stored {
	return &Stored{store: store, name: name, floor: floor}
}

// Peek 返回下一个将被分配的标识符
func (s *Stored) Peek(ctx context.Context) (uint64, error) {
	v, ok, err := s.store.LoadCounter(ctx, s.name)
	if err != nil {
		return 0, xerrors.Wrapf(err, "load counter %s", s.name)
	}
	if !ok {
		return s.floor, nil
	}
	return v, nil
}

// Advance 预留 n 个标识符并返回第一个
func (s *Stored) Advance(ctx context.Context, n uint64) (uint64, error) {
	if n == 0 {
		return 0, xerrors.Wrap(ErrInvalidInput, "advance by zero")
	}
	first, err := s.Peek(ctx)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint64-first {
		return 0, xerrors.WithCode(xerrors.Wrapf(ErrExhausted, "%s: next %d, advance %d", s.name, first, n), CodeExhausted)
	}
	if err := s.store.StoreCounter(ctx, s.name, first+n); err != nil {
		return 0, xerrors.Wrapf(err, "store counter %s", s.name)
	}
	return first, nil
}
