package nft

import (
	"context"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/notify"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/storage"
	"github.com/ceyewan/nftledger/xerrors"
)

// TransferRequest 按数量转移，转出方标识符最大的部分先被移走
type TransferRequest struct {
	From   string
	To     string
	Kind   string
	Amount uint64
	Memo   string
}

// TransferIDRequest 转移指定的一个资产
type TransferIDRequest struct {
	From string
	To   string
	ID   uint64
	Memo string
}

// Transfer 从 From 转移 Amount 个资产给 To，返回被转移的标识符
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (rangeset.Set, error) {
	if err := s.checkParties(req.From, req.To, req.Memo); err != nil {
		return nil, err
	}
	ctx = clog.ContextWithAccount(ctx, req.From)
	if err := checkKind(req.Kind); err != nil {
		return nil, err
	}
	if req.Amount == 0 || req.Amount > s.cfg.MaxBatch {
		return nil, xerrors.WithCode(xerrors.Wrapf(ErrInvalidAmount, "amount %d, limit %d", req.Amount, s.cfg.MaxBatch), CodeInvalidAmount)
	}

	var (
		moved rangeset.Set
		entry *storage.Entry
	)
	err := s.mutate(ctx, opTransfer, func(ctx context.Context, tx storage.Tx) (err error) {
		kind, err := loadKind(ctx, tx, req.Kind)
		if err != nil {
			return err
		}

		book := s.ledger.Bind(tx)
		moved, err = book.Debit(ctx, ledger.Key{Account: req.From, Kind: req.Kind}, req.Amount)
		if err != nil {
			return err
		}
		if err := book.Credit(ctx, ledger.Key{Account: req.To, Kind: req.Kind}, moved.Len(), moved); err != nil {
			return err
		}
		if err := tx.SetOwner(ctx, moved, req.To); err != nil {
			return xerrors.Wrapf(err, "set owner of %s", moved)
		}

		entry = &storage.Entry{
			KindID:    kind.ID,
			Kind:      req.Kind,
			Action:    storage.ActionTransfer,
			From:      req.From,
			To:        req.To,
			IDs:       moved,
			Memo:      req.Memo,
			CreatedAt: s.clock(),
		}
		return tx.AppendJournal(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "transferred",
		clog.String("kind", req.Kind),
		clog.String("from", req.From),
		clog.String("to", req.To),
		clog.Stringer("ids", moved),
	)
	s.publish(ctx, notify.Event{
		Type:      notify.EventTransferred,
		Kind:      req.Kind,
		From:      req.From,
		To:        req.To,
		IDs:       moved,
		Memo:      req.Memo,
		JournalID: entry.ID,
		At:        entry.CreatedAt,
	})
	return moved, nil
}

// TransferID 将标识符为 ID 的资产从 From 转给 To
func (s *Service) TransferID(ctx context.Context, req TransferIDRequest) error {
	if err := s.checkParties(req.From, req.To, req.Memo); err != nil {
		return err
	}
	ctx = clog.ContextWithAccount(ctx, req.From)

	ids := rangeset.Of(req.ID, req.ID)
	var entry *storage.Entry
	err := s.mutate(ctx, opTransferID, func(ctx context.Context, tx storage.Tx) error {
		tok, err := tx.GetToken(ctx, req.ID)
		if err != nil {
			return xerrors.Wrapf(err, "get token %d", req.ID)
		}
		if tok == nil {
			return xerrors.Wrapf(ErrTokenNotFound, "id %d", req.ID)
		}
		if tok.Owner != req.From {
			return xerrors.WithCode(xerrors.Wrapf(ErrNotOwner, "token %d owned by %s, not %s", req.ID, tok.Owner, req.From), CodeNotOwner)
		}
		kind, err := loadKind(ctx, tx, tok.Kind)
		if err != nil {
			return err
		}

		book := s.ledger.Bind(tx)
		if err := book.DebitSingle(ctx, ledger.Key{Account: req.From, Kind: tok.Kind}, req.ID); err != nil {
			return err
		}
		if err := book.Credit(ctx, ledger.Key{Account: req.To, Kind: tok.Kind}, 1, ids); err != nil {
			return err
		}
		if err := tx.SetOwner(ctx, ids, req.To); err != nil {
			return xerrors.Wrapf(err, "set owner of %d", req.ID)
		}

		entry = &storage.Entry{
			KindID:    kind.ID,
			Kind:      tok.Kind,
			Action:    storage.ActionTransferID,
			From:      req.From,
			To:        req.To,
			IDs:       ids,
			Memo:      req.Memo,
			CreatedAt: s.clock(),
		}
		return tx.AppendJournal(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "transferred",
		clog.String("kind", entry.Kind),
		clog.String("from", req.From),
		clog.String("to", req.To),
		clog.Uint64("id", req.ID),
	)
	s.publish(ctx, notify.Event{
		Type:      notify.EventTransferred,
		Kind:      entry.Kind,
		From:      req.From,
		To:        req.To,
		IDs:       ids,
		Memo:      req.Memo,
		JournalID: entry.ID,
		At:        entry.CreatedAt,
	})
	return nil
}

func (s *Service) checkParties(from, to, memo string) error {
	if err := s.checkAccount("sender", from); err != nil {
		return err
	}
	if err := s.checkAccount("recipient", to); err != nil {
		return err
	}
	if from == to {
		return xerrors.WithCode(xerrors.Wrapf(ErrSelfTransfer, "%s", from), CodeSelfTransfer)
	}
	return s.checkMemo(memo)
}
