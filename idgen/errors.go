package idgen

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrInvalidInput 参数无效，如 Advance(0)
	ErrInvalidInput = xerrors.Derive(xerrors.ErrInvalidInput, "idgen: invalid input")

	// ErrExhausted 计数器溢出
	ErrExhausted = xerrors.Derive(xerrors.ErrConflict, "idgen: identifier space exhausted")

	// ErrConnectorNil 连接器为空
	ErrConnectorNil = xerrors.Derive(xerrors.ErrInvalidInput, "idgen: connector is nil")

	// ErrContention CAS 重试次数用尽
	ErrContention = xerrors.Derive(xerrors.ErrConflict, "idgen: too much contention")
)

// 错误码
const (
	CodeExhausted = "id_exhausted"
)
