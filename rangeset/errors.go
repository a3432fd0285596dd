package rangeset

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrInvalidRange 区间 Lo > Hi，或长度超出 uint64 表示范围
	ErrInvalidRange = xerrors.Derive(xerrors.ErrInvalidInput, "rangeset: invalid range")

	// ErrMalformedSet 集合未按 Lo 严格递增、存在重叠或存在未合并的相邻区间
	ErrMalformedSet = xerrors.Derive(xerrors.ErrInvalidInput, "rangeset: malformed set")

	// ErrInsufficient 请求移除的数量大于集合总长度
	ErrInsufficient = xerrors.Derive(xerrors.ErrConflict, "rangeset: insufficient identifiers")

	// ErrNotFound 标识符不在集合中
	ErrNotFound = xerrors.Derive(xerrors.ErrNotFound, "rangeset: identifier not found")
)

// 错误码
const (
	CodeInvalidRange = "invalid_range"
	CodeMalformedSet = "malformed_set"
)
