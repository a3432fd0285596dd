// Package storage 是 nftledger 的持久化层：账户持有记录、资产类型、资产实体、
// 标识符计数器与操作流水，全部在同一个事务边界内读写。
//
// 两种实现：
//   - NewMemory：进程内 map，事务串行执行，失败时按撤销日志回滚
//   - NewGorm：基于 db.DB 的关系型存储，支持 SQLite / MySQL / PostgreSQL
//
// Tx 同时满足 ledger.Store 与 idgen.CounterStore，因此 Ledger 与 Stored 分配器
// 可以直接绑定到事务上：
//
//	err := store.Transaction(ctx, func(ctx context.Context, tx storage.Tx) error {
//	    book := l.Bind(tx)
//	    alloc := idgen.NewStored(tx, "token_id", 1)
//	    ...
//	})
package storage

import (
	"context"

	"github.com/ceyewan/nftledger/idgen"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/rangeset"
)

// Storage 事务化的持久化入口
type Storage interface {
	// Transaction 在一个事务中执行 fn；fn 返回错误或 panic 时所有写入被撤销
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close 释放存储持有的资源
	Close() error
}

// Tx 事务内可见的读写操作，不得在 fn 返回后继续使用
//
// 读取类方法在记录不存在时返回 (nil, nil)。
type Tx interface {
	ledger.Store
	idgen.CounterStore

	GetKind(ctx context.Context, code string) (*Kind, error)
	// CreateKind 写入新的资产类型并回填 ID，代码已存在时返回 ErrDuplicate
	CreateKind(ctx context.Context, kind *Kind) error
	UpdateSupply(ctx context.Context, code string, supply uint64) error

	GetToken(ctx context.Context, id uint64) (*Token, error)
	// PutTokens 批量写入新资产，ID 或坐标重复时返回 ErrDuplicate
	PutTokens(ctx context.Context, tokens []Token) error
	FindTokenByCoords(ctx context.Context, p rangeset.Point) (*Token, error)
	// SetOwner 将 ids 覆盖的全部资产转给 owner，任一标识符不存在时返回 ErrNotFound
	SetOwner(ctx context.Context, ids rangeset.Set, owner string) error

	// AppendJournal 追加一条操作流水并回填 ID
	AppendJournal(ctx context.Context, entry *Entry) error
	// ListJournal 按时间倒序返回某个资产类型最近的 limit 条流水
	ListJournal(ctx context.Context, kindID uint64, limit int) ([]Entry, error)
}
