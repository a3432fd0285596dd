package storage

import (
	"time"

	"github.com/ceyewan/nftledger/rangeset"
)

// 表名
const (
	TableKinds    = "nft_kinds"
	TableTokens   = "nft_tokens"
	TableRecords  = "nft_ownership_records"
	TableCounters = "nft_counters"
	TableJournal  = "nft_journal"
)

type kindModel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"size:16;not null;uniqueIndex"`
	Issuer    string `gorm:"size:64;not null"`
	Supply    uint64 `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (kindModel) TableName() string { return TableKinds }

func (m *kindModel) toKind() *Kind {
	return &Kind{ID: m.ID, Code: m.Code, Issuer: m.Issuer, Supply: m.Supply, CreatedAt: m.CreatedAt}
}

type tokenModel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement:false"`
	Kind      string `gorm:"size:16;not null;index"`
	Owner     string `gorm:"size:64;not null;index"`
	Name      string `gorm:"size:64;not null"`
	Lat       int64  `gorm:"not null;uniqueIndex:idx_nft_tokens_coords,priority:1"`
	Lon       int64  `gorm:"not null;uniqueIndex:idx_nft_tokens_coords,priority:2"`
	CreatedAt time.Time
}

func (tokenModel) TableName() string { return TableTokens }

func newTokenModel(t *Token) tokenModel {
	return tokenModel{
		ID:        t.ID,
		Kind:      t.Kind,
		Owner:     t.Owner,
		Name:      t.Name,
		Lat:       t.Coords.Lat,
		Lon:       t.Coords.Lon,
		CreatedAt: t.CreatedAt,
	}
}

func (m *tokenModel) toToken() *Token {
	return &Token{
		ID:        m.ID,
		Kind:      m.Kind,
		Owner:     m.Owner,
		Name:      m.Name,
		Coords:    rangeset.Point{Lat: m.Lat, Lon: m.Lon},
		CreatedAt: m.CreatedAt,
	}
}

// recordModel 区间集合编码后整体存放，Intervals 便于排查碎片化
type recordModel struct {
	Account   string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"primaryKey;size:16"`
	Quantity  uint64 `gorm:"not null"`
	Intervals int    `gorm:"not null"`
	Owned     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (recordModel) TableName() string { return TableRecords }

type counterModel struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value uint64 `gorm:"not null"`
}

func (counterModel) TableName() string { return TableCounters }

// journalModel 开启分表时按 kind_id 拆分，主键由分表中间件生成
type journalModel struct {
	ID        uint64 `gorm:"primaryKey"`
	KindID    uint64 `gorm:"not null;index"`
	Kind      string `gorm:"size:16;not null"`
	Action    string `gorm:"size:16;not null"`
	From      string `gorm:"column:from_account;size:64"`
	To        string `gorm:"column:to_account;size:64"`
	IDs       []byte `gorm:"column:ids"`
	Memo      string `gorm:"size:256"`
	CreatedAt time.Time
}

func (journalModel) TableName() string { return TableJournal }
