// Package xerrors 提供 nftledger 统一的错误处理工具。
//
// 约定：
//   - 每个组件在自己的 errors.go 中声明哨兵错误，并通过 Derive 归入下方的错误类别
//   - 需要机器可读错误码时使用 WithCode，调用方通过 GetCode 提取
//   - 调用方既可以匹配精确的哨兵错误，也可以匹配错误类别
//
// 示例：
//
//	var ErrInsufficientBalance = xerrors.Derive(xerrors.ErrConflict, "ledger: insufficient balance")
//
//	err := xerrors.WithCode(ErrInsufficientBalance, "insufficient_balance")
//	xerrors.Is(err, ErrInsufficientBalance) // true
//	xerrors.Is(err, xerrors.ErrConflict)    // true
//	xerrors.GetCode(err)                    // "insufficient_balance"
package xerrors

import (
	"errors"
	"fmt"
)

// 错误类别。组件的哨兵错误应通过 Derive 挂到其中之一。
var (
	// ErrInvalidInput 调用方传入的参数不合法
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("not found")

	// ErrConflict 请求与当前状态冲突（余额不足、重复创建等）
	ErrConflict = errors.New("conflict")

	// ErrInternal 内部不变量被破坏，不可恢复
	ErrInternal = errors.New("internal error")

	// ErrTimeout 操作超时
	ErrTimeout = errors.New("timeout")

	// ErrUnavailable 依赖的外部服务不可用
	ErrUnavailable = errors.New("unavailable")
)

// Wrap 用上下文信息包装错误，保留错误链。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithCode 用错误码包装错误。
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

// CodedError 带有机器可读错误码的错误。
type CodedError struct {
	Code  string
	Cause error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Code)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// GetCode 从错误链中提取错误码。
func GetCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Derive 创建一个归属于 parent 类别的哨兵错误。
//
// 返回的错误消息仅为 msg，但 errors.Is(err, parent) 成立。
func Derive(parent error, msg string) error {
	return &derivedError{msg: msg, parent: parent}
}

type derivedError struct {
	msg    string
	parent error
}

func (e *derivedError) Error() string {
	return e.msg
}

func (e *derivedError) Unwrap() error {
	return e.parent
}

// Must 如果 err 不为 nil，则 panic。仅用于初始化阶段。
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
