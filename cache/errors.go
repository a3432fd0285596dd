package cache

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrMiss 键不存在或已过期
	ErrMiss = xerrors.Derive(xerrors.ErrNotFound, "cache: miss")

	// ErrInvalidConfig 配置不合法
	ErrInvalidConfig = xerrors.Derive(xerrors.ErrInvalidInput, "cache: invalid config")

	// ErrRedisRequired redis 驱动未注入连接器
	ErrRedisRequired = xerrors.Derive(xerrors.ErrInvalidInput, "cache: redis connector is required, use WithRedisConnector")

	// ErrInvalidDest 读取目标不是非空指针
	ErrInvalidDest = xerrors.Derive(xerrors.ErrInvalidInput, "cache: dest must be a non-nil pointer")
)
