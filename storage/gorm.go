package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/db"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/xerrors"
)

type gormStorage struct {
	database db.DB
	opts     *options
}

// NewGorm 基于 db.DB 创建存储，并自动建表
//
// 开启分表时流水表按 db.ShardTables 返回的物理表逐一建表。
func NewGorm(ctx context.Context, database db.DB, opts ...Option) (Storage, error) {
	if database == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "storage: database is nil")
	}
	s := &gormStorage{database: database, opts: applyOptions(opts)}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *gormStorage) migrate(ctx context.Context) error {
	conn := s.database.DB(ctx)
	if err := conn.AutoMigrate(&kindModel{}, &tokenModel{}, &recordModel{}, &counterModel{}); err != nil {
		return xerrors.Wrap(err, "migrate ledger tables")
	}
	shards := s.database.ShardTables(TableJournal)
	for _, table := range shards {
		if err := conn.Table(table).AutoMigrate(&journalModel{}); err != nil {
			return xerrors.Wrapf(err, "migrate %s", table)
		}
	}
	s.opts.logger.InfoContext(ctx, "storage migrated",
		clog.String("driver", s.database.Driver()),
		clog.Int("journal_shards", len(shards)),
	)
	return nil
}

func (s *gormStorage) Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.database.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return fn(ctx, &gormTx{db: tx, opts: s.opts})
	})
}

func (s *gormStorage) Close() error {
	return s.database.Close()
}

type gormTx struct {
	db   *gorm.DB
	opts *options
}

func (tx *gormTx) conn(ctx context.Context) *gorm.DB {
	return tx.db.WithContext(ctx)
}

// translate 将唯一约束冲突转换为 ErrDuplicate
func translate(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return xerrors.Wrapf(ErrDuplicate, format, args...)
	}
	return xerrors.Wrapf(err, format, args...)
}

func (tx *gormTx) GetRecord(ctx context.Context, key ledger.Key) (*ledger.Record, error) {
	var m recordModel
	err := tx.conn(ctx).Where("account = ? AND kind = ?", key.Account, key.Kind).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &ledger.Record{Key: key, Quantity: m.Quantity}
	if err := tx.opts.serializer.Unmarshal(m.Owned, &rec.Owned); err != nil {
		return nil, xerrors.Wrapf(err, "decode owned set of %s", key)
	}
	return rec, nil
}

func (tx *gormTx) PutRecord(ctx context.Context, rec *ledger.Record) error {
	owned, err := tx.opts.serializer.Marshal(rec.Owned)
	if err != nil {
		return xerrors.Wrapf(err, "encode owned set of %s", rec.Key)
	}
	m := recordModel{
		Account:   rec.Key.Account,
		Kind:      rec.Key.Kind,
		Quantity:  rec.Quantity,
		Intervals: len(rec.Owned),
		Owned:     owned,
		UpdatedAt: tx.opts.clock(),
	}
	return tx.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "intervals", "owned", "updated_at"}),
	}).Create(&m).Error
}

func (tx *gormTx) DeleteRecord(ctx context.Context, key ledger.Key) error {
	return tx.conn(ctx).Where("account = ? AND kind = ?", key.Account, key.Kind).Delete(&recordModel{}).Error
}

func (tx *gormTx) LoadCounter(ctx context.Context, name string) (uint64, bool, error) {
	var m counterModel
	err := tx.conn(ctx).Where("name = ?", name).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return m.Value, true, nil
}

func (tx *gormTx) StoreCounter(ctx context.Context, name string, value uint64) error {
	return tx.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&counterModel{Name: name, Value: value}).Error
}

func (tx *gormTx) GetKind(ctx context.Context, code string) (*Kind, error) {
	var m kindModel
	err := tx.conn(ctx).Where("code = ?", code).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toKind(), nil
}

func (tx *gormTx) CreateKind(ctx context.Context, kind *Kind) error {
	m := kindModel{Code: kind.Code, Issuer: kind.Issuer, Supply: kind.Supply, CreatedAt: kind.CreatedAt}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = tx.opts.clock()
	}
	if err := tx.conn(ctx).Create(&m).Error; err != nil {
		return translate(err, "kind %s", kind.Code)
	}
	kind.ID = m.ID
	kind.CreatedAt = m.CreatedAt
	return nil
}

func (tx *gormTx) UpdateSupply(ctx context.Context, code string, supply uint64) error {
	res := tx.conn(ctx).Model(&kindModel{}).Where("code = ?", code).Update("supply", supply)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL 对未变化的行返回 0，需要再确认一次
		var n int64
		if err := tx.conn(ctx).Model(&kindModel{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return xerrors.Wrapf(ErrNotFound, "kind %s", code)
		}
	}
	return nil
}

func (tx *gormTx) GetToken(ctx context.Context, id uint64) (*Token, error) {
	var m tokenModel
	err := tx.conn(ctx).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toToken(), nil
}

func (tx *gormTx) PutTokens(ctx context.Context, tokens []Token) error {
	if len(tokens) == 0 {
		return nil
	}
	now := tx.opts.clock()
	rows := make([]tokenModel, len(tokens))
	for i := range tokens {
		rows[i] = newTokenModel(&tokens[i])
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
	}
	if err := tx.conn(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return translate(err, "put %d tokens starting at %d", len(tokens), tokens[0].ID)
	}
	return nil
}

func (tx *gormTx) FindTokenByCoords(ctx context.Context, p rangeset.Point) (*Token, error) {
	var m tokenModel
	err := tx.conn(ctx).Where("lat = ? AND lon = ?", p.Lat, p.Lon).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toToken(), nil
}

func (tx *gormTx) SetOwner(ctx context.Context, ids rangeset.Set, owner string) error {
	for _, r := range ids {
		var n int64
		if err := tx.conn(ctx).Model(&tokenModel{}).Where("id BETWEEN ? AND ?", r.Lo, r.Hi).Count(&n).Error; err != nil {
			return err
		}
		if uint64(n) != r.Len() {
			return xerrors.Wrapf(ErrNotFound, "tokens %s: found %d of %d", r, n, r.Len())
		}
		if err := tx.conn(ctx).Model(&tokenModel{}).Where("id BETWEEN ? AND ?", r.Lo, r.Hi).Update("owner", owner).Error; err != nil {
			return err
		}
	}
	return nil
}

func (tx *gormTx) AppendJournal(ctx context.Context, entry *Entry) error {
	ids, err := tx.opts.serializer.Marshal(entry.IDs)
	if err != nil {
		return xerrors.Wrap(err, "encode journal ids")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = tx.opts.clock()
	}
	m := journalModel{
		KindID:    entry.KindID,
		Kind:      entry.Kind,
		Action:    string(entry.Action),
		From:      entry.From,
		To:        entry.To,
		IDs:       ids,
		Memo:      entry.Memo,
		CreatedAt: entry.CreatedAt,
	}
	if err := tx.conn(ctx).Create(&m).Error; err != nil {
		return xerrors.Wrapf(err, "append journal for kind %d", entry.KindID)
	}
	entry.ID = m.ID
	return nil
}

func (tx *gormTx) ListJournal(ctx context.Context, kindID uint64, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "journal limit must be positive")
	}
	var rows []journalModel
	err := tx.conn(ctx).Where("kind_id = ?", kindID).Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Entry, len(rows))
	for i, m := range rows {
		out[i] = Entry{
			ID:        m.ID,
			KindID:    m.KindID,
			Kind:      m.Kind,
			Action:    Action(m.Action),
			From:      m.From,
			To:        m.To,
			Memo:      m.Memo,
			CreatedAt: m.CreatedAt,
		}
		if len(m.IDs) > 0 {
			if err := tx.opts.serializer.Unmarshal(m.IDs, &out[i].IDs); err != nil {
				return nil, xerrors.Wrapf(err, "decode journal %d ids", m.ID)
			}
		}
	}
	return out, nil
}
