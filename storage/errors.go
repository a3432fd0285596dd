package storage

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrDuplicate 主键或唯一索引冲突
	ErrDuplicate = xerrors.Derive(xerrors.ErrConflict, "storage: duplicate")

	// ErrNotFound 要修改的记录不存在
	ErrNotFound = xerrors.Derive(xerrors.ErrNotFound, "storage: not found")

	// ErrClosed 存储已关闭
	ErrClosed = xerrors.Derive(xerrors.ErrUnavailable, "storage: closed")
)
