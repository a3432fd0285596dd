package config

import "github.com/ceyewan/nftledger/xerrors"

var (
	// ErrValidationFailed 配置为空或校验失败
	ErrValidationFailed = xerrors.Derive(xerrors.ErrInvalidInput, "config: validation failed")

	// ErrLoadFailed 配置文件存在但无法解析
	ErrLoadFailed = xerrors.Derive(xerrors.ErrInvalidInput, "config: load failed")
)

// IsInvalidInput 检查错误是否为配置格式无效或验证失败
func IsInvalidInput(err error) bool {
	return xerrors.Is(err, xerrors.ErrInvalidInput)
}
