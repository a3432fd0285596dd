package ledger

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrInsufficientBalance 记录不存在或持有数量不足
	ErrInsufficientBalance = xerrors.Derive(xerrors.ErrConflict, "ledger: insufficient balance")

	// ErrIdentifierNotFound 账户不持有指定标识符
	ErrIdentifierNotFound = xerrors.Derive(xerrors.ErrNotFound, "ledger: identifier not found")

	// ErrRecordNotFound 账户在该资产类型下没有记录
	ErrRecordNotFound = xerrors.Derive(xerrors.ErrNotFound, "ledger: record not found")

	// ErrInvalidCredit 入账参数不合法：数量为 0、区间集合不合法或数量与集合长度不一致
	ErrInvalidCredit = xerrors.Derive(xerrors.ErrInvalidInput, "ledger: invalid credit")

	// ErrAlreadyOwned 入账的标识符已被该账户持有
	ErrAlreadyOwned = xerrors.Derive(xerrors.ErrConflict, "ledger: identifiers already owned")

	// ErrCorrupted 记录的数量与区间集合长度不一致，或集合不满足不变量
	ErrCorrupted = xerrors.Derive(xerrors.ErrInternal, "ledger: record corrupted")
)

// 错误码
const (
	CodeInsufficientBalance = "insufficient_balance"
	CodeIdentifierNotFound  = "identifier_not_found"
	CodeRecordCorrupted     = "record_corrupted"
	CodeInvalidCredit       = "invalid_credit"
)
