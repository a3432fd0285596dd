package nft

import (
	"context"
	"math"

	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/idgen"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/notify"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/storage"
	"github.com/ceyewan/nftledger/xerrors"
)

// IssueRequest 一次批量发行，Coords[i] 绑定到第 i 个标识符
type IssueRequest struct {
	To     string
	Kind   string
	Amount uint64
	Coords []rangeset.Point
	Name   string
	Memo   string
}

// AreaRequest 按矩形区域发行，区域内每个格点一个资产
type AreaRequest struct {
	To   string
	Kind string
	Area rangeset.PointRange
	Name string
	Memo string
}

// Issue 发行 Amount 个资产给 To，返回分配到的连续标识符区间
//
// 全部校验、写入与计数器前进在同一个事务内完成；任何一步失败，
// 计数器、供应量与持有记录都保持不变。
func (s *Service) Issue(ctx context.Context, req IssueRequest) (rangeset.Interval, error) {
	if err := s.checkIssue(req); err != nil {
		return rangeset.Interval{}, err
	}

	var (
		batch rangeset.Interval
		entry *storage.Entry
	)
	err := s.mutate(ctx, opIssue, func(ctx context.Context, tx storage.Tx) error {
		kind, err := loadKind(ctx, tx, req.Kind)
		if err != nil {
			return err
		}
		if kind.Supply > math.MaxUint64-req.Amount {
			return xerrors.WithCode(xerrors.Wrapf(ErrInvalidAmount, "%s: supply %d overflows", req.Kind, kind.Supply), CodeInvalidAmount)
		}

		alloc := s.allocatorFor(tx)
		first, err := alloc.Peek(ctx)
		if err != nil {
			return xerrors.Wrap(err, "peek allocator")
		}
		// 计数器保存下一个标识符，因此 MaxUint64 本身不可分配，与 Advance 的上界一致
		if req.Amount > math.MaxUint64-first {
			return xerrors.WithCode(xerrors.Wrapf(idgen.ErrExhausted, "next %d, issue %d", first, req.Amount), idgen.CodeExhausted)
		}
		batch = rangeset.Interval{Lo: first, Hi: first + req.Amount - 1}

		for _, p := range req.Coords {
			tok, err := tx.FindTokenByCoords(ctx, p)
			if err != nil {
				return xerrors.Wrapf(err, "find token at %s", p)
			}
			if tok != nil {
				return xerrors.WithCode(xerrors.Wrapf(ErrCoordsNotUnique, "%s taken by token %d", p, tok.ID), CodeCoordsNotUnique)
			}
		}

		now := s.clock()
		tokens := make([]storage.Token, len(req.Coords))
		for i, p := range req.Coords {
			tokens[i] = storage.Token{
				ID:        first + uint64(i),
				Kind:      req.Kind,
				Owner:     req.To,
				Name:      req.Name,
				Coords:    p,
				CreatedAt: now,
			}
		}
		if err := tx.PutTokens(ctx, tokens); err != nil {
			if xerrors.Is(err, storage.ErrDuplicate) {
				return xerrors.WithCode(xerrors.Wrapf(ErrCoordsNotUnique, "put tokens %s: %v", batch, err), CodeCoordsNotUnique)
			}
			return xerrors.Wrapf(err, "put tokens %s", batch)
		}

		ids := rangeset.Set{batch}
		if err := s.ledger.Bind(tx).Credit(ctx, ledger.Key{Account: req.To, Kind: req.Kind}, req.Amount, ids); err != nil {
			return err
		}
		if err := tx.UpdateSupply(ctx, req.Kind, kind.Supply+req.Amount); err != nil {
			return xerrors.Wrapf(err, "update supply %s", req.Kind)
		}

		entry = &storage.Entry{
			KindID:    kind.ID,
			Kind:      req.Kind,
			Action:    storage.ActionIssue,
			To:        req.To,
			IDs:       ids,
			Memo:      req.Memo,
			CreatedAt: now,
		}
		if err := tx.AppendJournal(ctx, entry); err != nil {
			return xerrors.Wrap(err, "append journal")
		}

		// 计数器最后前进，返回值必须与 Peek 一致
		got, err := alloc.Advance(ctx, req.Amount)
		if err != nil {
			return xerrors.Wrap(err, "advance allocator")
		}
		if got != first {
			return xerrors.WithCode(xerrors.Wrapf(ErrAllocatorMoved, "peeked %d, advanced from %d", first, got), CodeAllocatorMoved)
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "issue failed",
			clog.String("kind", req.Kind),
			clog.String("to", req.To),
			clog.Uint64("amount", req.Amount),
			clog.Error(err),
		)
		return rangeset.Interval{}, err
	}

	s.issued.Add(ctx, float64(req.Amount), metrics.L(metrics.LabelKind, req.Kind))
	s.invalidateKind(ctx, req.Kind)
	s.logger.InfoContext(ctx, "issued",
		clog.String("kind", req.Kind),
		clog.String("to", req.To),
		clog.Stringer("ids", batch),
	)
	s.publish(ctx, notify.Event{
		Type:      notify.EventIssued,
		Kind:      req.Kind,
		To:        req.To,
		IDs:       rangeset.Set{batch},
		Memo:      req.Memo,
		JournalID: entry.ID,
		At:        entry.CreatedAt,
	})
	return batch, nil
}

// IssueArea 为矩形区域内每个格点发行一个资产，格点按先 Lat 后 Lon 升序编号
func (s *Service) IssueArea(ctx context.Context, req AreaRequest) (rangeset.Interval, error) {
	n := rangeset.RangeLength(req.Area)
	if n > s.cfg.MaxBatch {
		return rangeset.Interval{}, xerrors.WithCode(
			xerrors.Wrapf(ErrInvalidAmount, "area %s-%s has %d points, limit %d", req.Area.A, req.Area.B, n, s.cfg.MaxBatch),
			CodeInvalidAmount)
	}
	return s.Issue(ctx, IssueRequest{
		To:     req.To,
		Kind:   req.Kind,
		Amount: n,
		Coords: req.Area.Points(),
		Name:   req.Name,
		Memo:   req.Memo,
	})
}

// checkIssue 不访问存储的参数校验，失败时不会分配任何标识符
func (s *Service) checkIssue(req IssueRequest) error {
	if uint64(len(req.Coords)) != req.Amount {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrCountMismatch, "amount %d, %d coordinates", req.Amount, len(req.Coords)),
			CodeCountMismatch)
	}
	if req.Amount == 0 || req.Amount > s.cfg.MaxBatch {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidAmount, "amount %d, limit %d", req.Amount, s.cfg.MaxBatch), CodeInvalidAmount)
	}
	if err := checkKind(req.Kind); err != nil {
		return err
	}
	if err := s.checkAccount("recipient", req.To); err != nil {
		return err
	}
	if len(req.Name) > s.cfg.MaxNameLen {
		return xerrors.Wrapf(ErrNameTooLong, "%d bytes, limit %d", len(req.Name), s.cfg.MaxNameLen)
	}
	if err := s.checkMemo(req.Memo); err != nil {
		return err
	}

	seen := make(map[rangeset.Point]struct{}, len(req.Coords))
	for i, p := range req.Coords {
		if _, dup := seen[p]; dup {
			return xerrors.WithCode(xerrors.Wrapf(ErrCoordsNotUnique, "%s repeated at index %d", p, i), CodeCoordsNotUnique)
		}
		seen[p] = struct{}{}
	}
	return nil
}
