package db

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = xerrors.Derive(xerrors.ErrInvalidInput, "db: invalid config")

	// ErrConnectorRequired 未提供数据库连接器或连接器尚未连接
	ErrConnectorRequired = xerrors.Derive(xerrors.ErrInvalidInput, "db: connector is required")
)
