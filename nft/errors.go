package nft

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrCountMismatch 声明的数量与提供的坐标数不一致
	ErrCountMismatch = xerrors.Derive(xerrors.ErrInvalidInput, "nft: count mismatch")

	// ErrInvalidAmount 数量为 0 或超过单批上限
	ErrInvalidAmount = xerrors.Derive(xerrors.ErrInvalidInput, "nft: invalid amount")

	// ErrInvalidKind 资产类型代码不是 1 到 7 个大写字母
	ErrInvalidKind = xerrors.Derive(xerrors.ErrInvalidInput, "nft: invalid kind code")

	// ErrInvalidAccount 账户名为空或过长
	ErrInvalidAccount = xerrors.Derive(xerrors.ErrInvalidInput, "nft: invalid account")

	// ErrNameTooLong 资产名称超过 MaxNameLen 字节
	ErrNameTooLong = xerrors.Derive(xerrors.ErrInvalidInput, "nft: name too long")

	// ErrMemoTooLong 备注超过 MaxMemoLen 字节
	ErrMemoTooLong = xerrors.Derive(xerrors.ErrInvalidInput, "nft: memo too long")

	// ErrSelfTransfer 转出方与接收方相同
	ErrSelfTransfer = xerrors.Derive(xerrors.ErrInvalidInput, "nft: cannot transfer to self")

	// ErrKindNotFound 资产类型尚未创建
	ErrKindNotFound = xerrors.Derive(xerrors.ErrNotFound, "nft: kind not found")

	// ErrKindExists 资产类型已存在
	ErrKindExists = xerrors.Derive(xerrors.ErrConflict, "nft: kind already exists")

	// ErrTokenNotFound 资产不存在
	ErrTokenNotFound = xerrors.Derive(xerrors.ErrNotFound, "nft: token not found")

	// ErrNotOwner 转出方不持有该资产
	ErrNotOwner = xerrors.Derive(xerrors.ErrConflict, "nft: sender does not own token")

	// ErrCoordsNotUnique 坐标已被占用或在同一批次中重复
	ErrCoordsNotUnique = xerrors.Derive(xerrors.ErrConflict, "nft: coordinates are not unique")

	// ErrAllocatorMoved 发行期间标识符计数器被其他写入推进
	ErrAllocatorMoved = xerrors.Derive(xerrors.ErrConflict, "nft: allocator moved during issuance")
)

// 错误码
const (
	CodeCountMismatch   = "count_mismatch"
	CodeCoordsNotUnique = "coords_not_unique"
	CodeAllocatorMoved  = "allocator_moved"
	CodeKindNotFound    = "kind_not_found"
	CodeNotOwner        = "not_owner"
	CodeSelfTransfer    = "self_transfer"
	CodeInvalidAmount   = "invalid_amount"
)
