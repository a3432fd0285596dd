// Package serializer 提供 cache、storage 与 notify 共用的编解码器。
package serializer

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/nftledger/xerrors"
)

// 编码名
const (
	JSON    = "json"
	MsgPack = "msgpack"
)

// ErrUnsupportedSerializer 不支持的编码名
var ErrUnsupportedSerializer = xerrors.Derive(xerrors.ErrInvalidInput, "serializer: unsupported type")

// Serializer 编解码接口
type Serializer interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
	// Name 返回编码名，也用作 notify 消息的 content-type 后缀
	Name() string
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(value any) ([]byte, error)     { return json.Marshal(value) }
func (jsonSerializer) Unmarshal(data []byte, dest any) error { return json.Unmarshal(data, dest) }
func (jsonSerializer) Name() string                          { return JSON }

// msgpackSerializer 体积更小，storage 用它保存区间集合
type msgpackSerializer struct{}

func (msgpackSerializer) Marshal(value any) ([]byte, error)     { return msgpack.Marshal(value) }
func (msgpackSerializer) Unmarshal(data []byte, dest any) error { return msgpack.Unmarshal(data, dest) }
func (msgpackSerializer) Name() string                          { return MsgPack }

// New 按名称创建序列化器，空字符串等同于 "json"
func New(name string) (Serializer, error) {
	switch name {
	case JSON, "":
		return jsonSerializer{}, nil
	case MsgPack:
		return msgpackSerializer{}, nil
	default:
		return nil, xerrors.Wrapf(ErrUnsupportedSerializer, "%q", name)
	}
}

// Must 类似 New，出错时 panic
func Must(name string) Serializer {
	return xerrors.Must(New(name))
}
