package ledger

import (
	"context"
	"fmt"

	"github.com/ceyewan/nftledger/rangeset"
)

// Key 账户持有记录的主键
type Key struct {
	Account string `json:"account" msgpack:"account"`
	Kind    string `json:"kind" msgpack:"kind"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Account, k.Kind)
}

// Record 账户在某资产类型下持有的标识符
//
// Quantity 始终等于 Owned.Len()；数量归零时记录被删除。
type Record struct {
	Key
	Quantity uint64       `json:"quantity" msgpack:"quantity"`
	Owned    rangeset.Set `json:"owned" msgpack:"owned"`
}

// Clone 深拷贝
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Owned = r.Owned.Clone()
	return &out
}

// check 校验记录内部一致性
func (r *Record) check() error {
	if err := r.Owned.Validate(); err != nil {
		return err
	}
	if n := r.Owned.Len(); n != r.Quantity {
		return fmt.Errorf("quantity %d does not match %d owned identifiers", r.Quantity, n)
	}
	return nil
}

// Store 持有记录的存储，查找需为对数复杂度或更优
//
// GetRecord 在记录不存在时返回 (nil, nil)。
// Store 的实现通常绑定到一个存储事务，由调用方负责提交或回滚。
type Store interface {
	GetRecord(ctx context.Context, key Key) (*Record, error)
	PutRecord(ctx context.Context, rec *Record) error
	DeleteRecord(ctx context.Context, key Key) error
}
