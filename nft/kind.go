package nft

import (
	"context"

	"github.com/ceyewan/nftledger/cache"
	"github.com/ceyewan/nftledger/clog"
	"github.com/ceyewan/nftledger/storage"
	"github.com/ceyewan/nftledger/xerrors"
)

func kindCacheKey(code string) string {
	return "kind:" + code
}

// CreateKind 创建资产类型，代码为 1 到 7 个大写字母，已存在时返回 ErrKindExists
func (s *Service) CreateKind(ctx context.Context, code, issuer string) (*storage.Kind, error) {
	if err := checkKind(code); err != nil {
		return nil, err
	}
	if err := s.checkAccount("issuer", issuer); err != nil {
		return nil, err
	}

	kind := &storage.Kind{Code: code, Issuer: issuer, CreatedAt: s.clock()}
	err := s.mutate(ctx, opCreate, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.CreateKind(ctx, kind); err != nil {
			if xerrors.Is(err, storage.ErrDuplicate) {
				return xerrors.Wrapf(ErrKindExists, "%s", code)
			}
			return xerrors.Wrapf(err, "create kind %s", code)
		}
		return tx.AppendJournal(ctx, &storage.Entry{
			KindID:    kind.ID,
			Kind:      code,
			Action:    storage.ActionCreate,
			To:        issuer,
			CreatedAt: kind.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "kind created", clog.String("kind", code), clog.String("issuer", issuer))
	return kind, nil
}

// Kind 读取资产类型，配置了缓存时先读缓存
func (s *Service) Kind(ctx context.Context, code string) (*storage.Kind, error) {
	if s.cache != nil {
		var cached storage.Kind
		err := s.cache.Get(ctx, kindCacheKey(code), &cached)
		if err == nil {
			return &cached, nil
		}
		if !xerrors.Is(err, cache.ErrMiss) {
			s.logger.WarnContext(ctx, "kind cache read failed", clog.String("kind", code), clog.Error(err))
		}
	}

	var kind *storage.Kind
	err := s.store.Transaction(ctx, func(ctx context.Context, tx storage.Tx) (err error) {
		kind, err = loadKind(ctx, tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, kindCacheKey(code), kind, s.cfg.KindCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "kind cache write failed", clog.String("kind", code), clog.Error(err))
		}
	}
	return kind, nil
}

// invalidateKind 在供应量变化后删除缓存
func (s *Service) invalidateKind(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, kindCacheKey(code)); err != nil {
		s.logger.WarnContext(ctx, "kind cache invalidate failed", clog.String("kind", code), clog.Error(err))
	}
}
