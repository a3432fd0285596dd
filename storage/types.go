package storage

import (
	"strconv"
	"time"

	"github.com/ceyewan/nftledger/rangeset"
)

// Kind 资产类型
type Kind struct {
	ID        uint64    `json:"id" msgpack:"id"`
	Code      string    `json:"code" msgpack:"code"`
	Issuer    string    `json:"issuer" msgpack:"issuer"`
	Supply    uint64    `json:"supply" msgpack:"supply"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
}

// Token 一个已发行的资产实体
type Token struct {
	ID        uint64         `json:"id" msgpack:"id"`
	Kind      string         `json:"kind" msgpack:"kind"`
	Owner     string         `json:"owner" msgpack:"owner"`
	Name      string         `json:"name" msgpack:"name"`
	Coords    rangeset.Point `json:"coords" msgpack:"coords"`
	CreatedAt time.Time      `json:"created_at" msgpack:"created_at"`
}

// UniqueName 名称加标识符，如 "parcel#42"
func (t *Token) UniqueName() string {
	return t.Name + "#" + strconv.FormatUint(t.ID, 10)
}

// Action 流水类型
type Action string

const (
	ActionCreate     Action = "create"
	ActionIssue      Action = "issue"
	ActionTransfer   Action = "transfer"
	ActionTransferID Action = "transferid"
)

// Entry 一条操作流水
type Entry struct {
	ID        uint64       `json:"id" msgpack:"id"`
	KindID    uint64       `json:"kind_id" msgpack:"kind_id"`
	Kind      string       `json:"kind" msgpack:"kind"`
	Action    Action       `json:"action" msgpack:"action"`
	From      string       `json:"from,omitempty" msgpack:"from,omitempty"`
	To        string       `json:"to,omitempty" msgpack:"to,omitempty"`
	IDs       rangeset.Set `json:"ids,omitempty" msgpack:"ids,omitempty"`
	Memo      string       `json:"memo,omitempty" msgpack:"memo,omitempty"`
	CreatedAt time.Time    `json:"created_at" msgpack:"created_at"`
}
