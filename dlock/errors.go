package dlock

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrInvalidConfig 配置不合法
	ErrInvalidConfig = xerrors.Derive(xerrors.ErrInvalidInput, "dlock: invalid config")

	// ErrConnectorNil 所选驱动缺少连接器
	ErrConnectorNil = xerrors.Derive(xerrors.ErrInvalidInput, "dlock: connector is nil")

	// ErrLockNotHeld 释放未持有的锁
	ErrLockNotHeld = xerrors.Derive(xerrors.ErrConflict, "dlock: lock not held")

	// ErrOwnershipLost 远端锁已过期或被他人持有
	ErrOwnershipLost = xerrors.Derive(xerrors.ErrConflict, "dlock: ownership lost")
)

