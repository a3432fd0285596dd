package connector

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrConfig 连接配置无效
	ErrConfig = xerrors.Derive(xerrors.ErrInvalidInput, "connector: invalid config")
	// ErrConnection 建立连接失败
	ErrConnection = xerrors.Derive(xerrors.ErrUnavailable, "connector: connection failed")
	// ErrHealthCheck 健康检查失败
	ErrHealthCheck = xerrors.Derive(xerrors.ErrUnavailable, "connector: health check failed")
	// ErrClientNil 客户端尚未建立或已关闭
	ErrClientNil = xerrors.Derive(xerrors.ErrUnavailable, "connector: client is nil")
)
