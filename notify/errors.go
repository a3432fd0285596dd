package notify

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrInvalidConfig 配置不合法
	ErrInvalidConfig = xerrors.Derive(xerrors.ErrInvalidInput, "notify: invalid config")

	// ErrConnectorNil 所选驱动缺少连接器
	ErrConnectorNil = xerrors.Derive(xerrors.ErrInvalidInput, "notify: connector is nil")

	// ErrInvalidEvent 事件缺少类型、资产类型或接收方
	ErrInvalidEvent = xerrors.Derive(xerrors.ErrInvalidInput, "notify: invalid event")
)
