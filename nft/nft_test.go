package nft

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ceyewan/nftledger/cache"
	"github.com/ceyewan/nftledger/db"
	"github.com/ceyewan/nftledger/idgen"
	"github.com/ceyewan/nftledger/ledger"
	"github.com/ceyewan/nftledger/notify"
	"github.com/ceyewan/nftledger/rangeset"
	"github.com/ceyewan/nftledger/storage"
	"github.com/ceyewan/nftledger/testkit"
	"github.com/ceyewan/nftledger/xerrors"
)

// recorder 记录收到的事件
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

// movingAllocator 模拟在发行期间被其他写入推进的计数器
type movingAllocator struct{ next uint64 }

func (a *movingAllocator) Peek(context.Context) (uint64, error) { return a.next, nil }

func (a *movingAllocator) Advance(_ context.Context, n uint64) (uint64, error) {
	a.next += n + 1
	return a.next - n, nil
}

type fixture struct {
	svc   *Service
	store storage.Storage
	sent  *recorder
}

// eachService 对内存与 sqlite 存储各运行一次
func eachService(t *testing.T, cfg *Config, fn func(t *testing.T, f *fixture), opts ...Option) {
	t.Helper()
	build := func(t *testing.T, store storage.Storage) *fixture {
		sent := &recorder{}
		all := append([]Option{WithLogger(testkit.NewLogger()), WithMeter(testkit.NewMeter()), WithNotifier(sent)}, opts...)
		c := *cfg
		svc, err := New(store, &c, all...)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = svc.Close()
			_ = store.Close()
		})
		return &fixture{svc: svc, store: store, sent: sent}
	}

	t.Run("memory", func(t *testing.T) {
		fn(t, build(t, storage.NewMemory()))
	})
	t.Run("sqlite", func(t *testing.T) {
		database, err := db.New(testkit.NewSQLiteConnector(t), &db.Config{})
		require.NoError(t, err)
		store, err := storage.NewGorm(t.Context(), database)
		require.NoError(t, err)
		fn(t, build(t, store))
	})
}

// row 生成 n 个坐标 (lat, 0..n-1)
func row(lat int64, n int) []rangeset.Point {
	out := make([]rangeset.Point, n)
	for i := range out {
		out[i] = rangeset.Point{Lat: lat, Lon: int64(i)}
	}
	return out
}

func (f *fixture) nextID(t *testing.T) uint64 {
	t.Helper()
	var next uint64
	require.NoError(t, f.store.Transaction(t.Context(), func(ctx context.Context, tx storage.Tx) (err error) {
		next, err = idgen.NewStored(tx, f.svc.cfg.AllocatorName, f.svc.cfg.AllocatorFloor).Peek(ctx)
		return err
	}))
	return next
}

func (f *fixture) issue(t *testing.T, to string, coords []rangeset.Point) rangeset.Interval {
	t.Helper()
	batch, err := f.svc.Issue(t.Context(), IssueRequest{To: to, Kind: "LAND", Amount: uint64(len(coords)), Coords: coords, Name: "parcel"})
	require.NoError(t, err)
	return batch
}

func (f *fixture) holdings(t *testing.T, account string) rangeset.Set {
	t.Helper()
	ids, err := f.svc.Holdings(t.Context(), account, "LAND")
	require.NoError(t, err)
	return ids
}

func TestIssue(t *testing.T) {
	eachService(t, &Config{AllocatorFloor: 1}, func(t *testing.T, f *fixture) {
		ctx := t.Context()
		_, err := f.svc.CreateKind(ctx, "LAND", "gov")
		require.NoError(t, err)

		assert.Equal(t, rangeset.Interval{Lo: 1, Hi: 3}, f.issue(t, "alice", row(0, 3)))
		assert.Equal(t, rangeset.Interval{Lo: 4, Hi: 5}, f.issue(t, "alice", row(1, 2)))

		assert.Equal(t, rangeset.Of(1, 5), f.holdings(t, "alice"))
		n, err := f.svc.Balance(ctx, "alice", "LAND")
		require.NoError(t, err)
		assert.Equal(t, uint64(5), n)
		assert.Equal(t, uint64(6), f.nextID(t))

		kind, err := f.svc.Kind(ctx, "LAND")
		require.NoError(t, err)
		assert.Equal(t, uint64(5), kind.Supply)
		assert.Equal(t, "gov", kind.Issuer)

		tok, err := f.svc.Token(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "alice", tok.Owner)
		assert.Equal(t, rangeset.Point{Lat: 1, Lon: 0}, tok.Coords)
		assert.Equal(t, "parcel#4", tok.UniqueName())

		events := f.sent.all()
		require.Len(t, events, 2)
		assert.Equal(t, notify.EventIssued, events[1].Type)
		assert.Equal(t, "alice", events[1].To)
		assert.Equal(t, rangeset.Of(4, 5), events[1].IDs)
		assert.NotZero(t, events[1].JournalID)

		history, err := f.svc.History(ctx, "LAND", 0)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, storage.ActionIssue, history[0].Action)
		assert.Equal(t, rangeset.Of(4, 5), history[0].IDs)
		assert.Equal(t, storage.ActionCreate, history[2].Action)
	})
}

func TestIssueRejectsWithoutSideEffects(t *testing.T) {
	long := string(make([]byte, 33))
	tests := []struct {
		name string
		req  IssueRequest
		want error
		code string
	}{
		{"count mismatch", IssueRequest{To: "alice", Kind: "LAND", Amount: 3, Coords: row(5, 2)}, ErrCountMismatch, CodeCountMismatch},
		{"zero amount", IssueRequest{To: "alice", Kind: "LAND"}, ErrInvalidAmount, CodeInvalidAmount},
		{"over batch limit", IssueRequest{To: "alice", Kind: "LAND", Amount: 5, Coords: row(5, 5)}, ErrInvalidAmount, CodeInvalidAmount},
		{"bad kind code", IssueRequest{To: "alice", Kind: "land", Amount: 1, Coords: row(5, 1)}, ErrInvalidKind, ""},
		{"unknown kind", IssueRequest{To: "alice", Kind: "SEA", Amount: 1, Coords: row(5, 1)}, ErrKindNotFound, CodeKindNotFound},
		{"empty recipient", IssueRequest{Kind: "LAND", Amount: 1, Coords: row(5, 1)}, ErrInvalidAccount, ""},
		{"name too long", IssueRequest{To: "alice", Kind: "LAND", Amount: 1, Coords: row(5, 1), Name: long}, ErrNameTooLong, ""},
		{"memo too long", IssueRequest{To: "alice", Kind: "LAND", Amount: 1, Coords: row(5, 1), Memo: string(make([]byte, 257))}, ErrMemoTooLong, ""},
		{"coords repeated in batch", IssueRequest{To: "alice", Kind: "LAND", Amount: 2, Coords: []rangeset.Point{{Lat: 5}, {Lat: 5}}}, ErrCoordsNotUnique, CodeCoordsNotUnique},
		{"coords already taken", IssueRequest{To: "bob", Kind: "LAND", Amount: 2, Coords: []rangeset.Point{{Lat: 5}, {Lat: 0, Lon: 0}}}, ErrCoordsNotUnique, CodeCoordsNotUnique},
	}

	eachService(t, &Config{AllocatorFloor: 1, MaxBatch: 4}, func(t *testing.T, f *fixture) {
		ctx := t.Context()
		_, err := f.svc.CreateKind(ctx, "LAND", "gov")
		require.NoError(t, err)
		f.issue(t, "alice", row(0, 1))

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.svc.Issue(ctx, tt.req)
				require.Error(t, err)
				assert.True(t, xerrors.Is(err, tt.want), "got %v", err)
				assert.Equal(t, tt.code, xerrors.GetCode(err))

				assert.Equal(t, uint64(2), f.nextID(t))
				assert.Equal(t, rangeset.Of(1, 1), f.holdings(t, "alice"))
				assert.Empty(t, f.holdings(t, "bob"))
				kind, err := f.svc.Kind(ctx, "LAND")
				require.NoError(t, err)
				assert.Equal(t, uint64(1), kind.Supply)
				assert.Len(t, f.sent.all(), 1)
			})
		}
	})
}

func TestIssueAllocatorMoved(t *testing.T) {
	alloc := &movingAllocator{next: 10}
	svc, err := New(storage.NewMemory(), &Config{}, WithAllocator(alloc), WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	ctx := t.Context()

	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)

	_, err = svc.Issue(ctx, IssueRequest{To: "alice", Kind: "LAND", Amount: 2, Coords: row(0, 2)})
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, ErrAllocatorMoved))
	assert.Equal(t, CodeAllocatorMoved, xerrors.GetCode(err))

	n, err := svc.Balance(ctx, "alice", "LAND")
	require.NoError(t, err)
	assert.Zero(t, n)
	kind, err := svc.Kind(ctx, "LAND")
	require.NoError(t, err)
	assert.Zero(t, kind.Supply)
	_, err = svc.Token(ctx, 10)
	assert.True(t, xerrors.Is(err, ErrTokenNotFound))
}

func TestIssueNearCounterLimit(t *testing.T) {
	svc, err := New(storage.NewMemory(), &Config{AllocatorFloor: math.MaxUint64 - 2}, WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	ctx := t.Context()

	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)

	batch, err := svc.Issue(ctx, IssueRequest{To: "alice", Kind: "LAND", Amount: 2, Coords: row(0, 2)})
	require.NoError(t, err)
	assert.Equal(t, rangeset.Interval{Lo: math.MaxUint64 - 2, Hi: math.MaxUint64 - 1}, batch)

	_, err = svc.Issue(ctx, IssueRequest{To: "alice", Kind: "LAND", Amount: 1, Coords: row(1, 1)})
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, idgen.ErrExhausted), "got %v", err)
	assert.Equal(t, idgen.CodeExhausted, xerrors.GetCode(err))

	n, err := svc.Balance(ctx, "alice", "LAND")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	_, err = svc.Token(ctx, math.MaxUint64)
	assert.True(t, xerrors.Is(err, ErrTokenNotFound))
}

func TestIssueArea(t *testing.T) {
	eachService(t, &Config{AllocatorFloor: 1, MaxBatch: 6}, func(t *testing.T, f *fixture) {
		ctx := t.Context()
		_, err := f.svc.CreateKind(ctx, "LAND", "gov")
		require.NoError(t, err)

		batch, err := f.svc.IssueArea(ctx, AreaRequest{
			To:   "alice",
			Kind: "LAND",
			Area: rangeset.PointRange{A: rangeset.Point{Lat: 1, Lon: 2}, B: rangeset.Point{Lat: 0, Lon: 0}},
			Name: "block",
		})
		require.NoError(t, err)
		assert.Equal(t, rangeset.Interval{Lo: 1, Hi: 6}, batch)

		tok, err := f.svc.Token(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, rangeset.Point{Lat: 0, Lon: 1}, tok.Coords)

		_, err = f.svc.IssueArea(ctx, AreaRequest{
			To:   "alice",
			Kind: "LAND",
			Area: rangeset.PointRange{A: rangeset.Point{Lat: 10, Lon: 10}, B: rangeset.Point{Lat: 12, Lon: 12}},
		})
		assert.True(t, xerrors.Is(err, ErrInvalidAmount))
		assert.Equal(t, uint64(7), f.nextID(t))
	})
}

func TestTransfer(t *testing.T) {
	eachService(t, &Config{AllocatorFloor: 1}, func(t *testing.T, f *fixture) {
		ctx := t.Context()
		_, err := f.svc.CreateKind(ctx, "LAND", "gov")
		require.NoError(t, err)
		f.issue(t, "alice", row(0, 5))

		moved, err := f.svc.Transfer(ctx, TransferRequest{From: "alice", To: "bob", Kind: "LAND", Amount: 2, Memo: "sale"})
		require.NoError(t, err)
		assert.Equal(t, rangeset.Of(4, 5), moved)
		assert.Equal(t, rangeset.Of(1, 3), f.holdings(t, "alice"))
		assert.Equal(t, rangeset.Of(4, 5), f.holdings(t, "bob"))

		for id, owner := range map[uint64]string{3: "alice", 4: "bob", 5: "bob"} {
			tok, err := f.svc.Token(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, owner, tok.Owner, "token %d", id)
		}

		events := f.sent.all()
		require.Len(t, events, 2)
		assert.Equal(t, notify.EventTransferred, events[1].Type)
		assert.Equal(t, "alice", events[1].From)
		assert.Equal(t, "sale", events[1].Memo)

		_, err = f.svc.Transfer(ctx, TransferRequest{From: "alice", To: "bob", Kind: "LAND", Amount: 4})
		assert.True(t, xerrors.Is(err, ledger.ErrInsufficientBalance), "got %v", err)
		assert.Equal(t, rangeset.Of(1, 3), f.holdings(t, "alice"))
		assert.Equal(t, rangeset.Of(4, 5), f.holdings(t, "bob"))

		// bob 退回后集合重新合并
		back, err := f.svc.Transfer(ctx, TransferRequest{From: "bob", To: "alice", Kind: "LAND", Amount: 2})
		require.NoError(t, err)
		assert.Equal(t, rangeset.Of(4, 5), back)
		assert.Equal(t, rangeset.Of(1, 5), f.holdings(t, "alice"))
		assert.Empty(t, f.holdings(t, "bob"))

		history, err := f.svc.History(ctx, "LAND", 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "bob", history[0].From)
		assert.Equal(t, "alice", history[1].From)
	})
}

func TestTransferRejects(t *testing.T) {
	tests := []struct {
		name string
		req  TransferRequest
		want error
	}{
		{"self transfer", TransferRequest{From: "alice", To: "alice", Kind: "LAND", Amount: 1}, ErrSelfTransfer},
		{"zero amount", TransferRequest{From: "alice", To: "bob", Kind: "LAND"}, ErrInvalidAmount},
		{"unknown kind", TransferRequest{From: "alice", To: "bob", Kind: "SEA", Amount: 1}, ErrKindNotFound},
		{"empty sender", TransferRequest{To: "bob", Kind: "LAND", Amount: 1}, ErrInvalidAccount},
		{"memo too long", TransferRequest{From: "alice", To: "bob", Kind: "LAND", Amount: 1, Memo: string(make([]byte, 300))}, ErrMemoTooLong},
		{"no holdings", TransferRequest{From: "carol", To: "bob", Kind: "LAND", Amount: 1}, ledger.ErrInsufficientBalance},
	}

	svc, err := New(storage.NewMemory(), &Config{AllocatorFloor: 1})
	require.NoError(t, err)
	ctx := t.Context()
	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueRequest{To: "alice", Kind: "LAND", Amount: 2, Coords: row(0, 2)})
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tt.req)
			assert.True(t, xerrors.Is(err, tt.want), "got %v", err)
			ids, err := svc.Holdings(ctx, "alice", "LAND")
			require.NoError(t, err)
			assert.Equal(t, rangeset.Of(1, 2), ids)
		})
	}
}

func TestTransferID(t *testing.T) {
	eachService(t, &Config{AllocatorFloor: 1}, func(t *testing.T, f *fixture) {
		ctx := t.Context()
		_, err := f.svc.CreateKind(ctx, "LAND", "gov")
		require.NoError(t, err)
		f.issue(t, "alice", row(0, 5))

		require.NoError(t, f.svc.TransferID(ctx, TransferIDRequest{From: "alice", To: "bob", ID: 3}))
		assert.Equal(t, rangeset.Set{{Lo: 1, Hi: 2}, {Lo: 4, Hi: 5}}, f.holdings(t, "alice"))
		assert.Equal(t, rangeset.Of(3, 3), f.holdings(t, "bob"))
		tok, err := f.svc.Token(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "bob", tok.Owner)

		err = f.svc.TransferID(ctx, TransferIDRequest{From: "alice", To: "bob", ID: 3})
		assert.True(t, xerrors.Is(err, ErrNotOwner))
		assert.Equal(t, CodeNotOwner, xerrors.GetCode(err))

		err = f.svc.TransferID(ctx, TransferIDRequest{From: "alice", To: "bob", ID: 99})
		assert.True(t, xerrors.Is(err, ErrTokenNotFound))

		err = f.svc.TransferID(ctx, TransferIDRequest{From: "bob", To: "bob", ID: 3})
		assert.True(t, xerrors.Is(err, ErrSelfTransfer))

		require.NoError(t, f.svc.TransferID(ctx, TransferIDRequest{From: "bob", To: "alice", ID: 3, Memo: "returned"}))
		assert.Equal(t, rangeset.Of(1, 5), f.holdings(t, "alice"))
		assert.Empty(t, f.holdings(t, "bob"))

		events := f.sent.all()
		require.Len(t, events, 3)
		assert.Equal(t, rangeset.Of(3, 3), events[2].IDs)
		assert.Equal(t, "returned", events[2].Memo)
	})
}

func TestCreateKind(t *testing.T) {
	eachService(t, &Config{}, func(t *testing.T, f *fixture) {
		ctx := t.Context()
		kind, err := f.svc.CreateKind(ctx, "LAND", "gov")
		require.NoError(t, err)
		assert.NotZero(t, kind.ID)

		_, err = f.svc.CreateKind(ctx, "LAND", "other")
		assert.True(t, xerrors.Is(err, ErrKindExists), "got %v", err)

		for _, code := range []string{"", "land", "TOOLONGX", "LA1D"} {
			_, err = f.svc.CreateKind(ctx, code, "gov")
			assert.True(t, xerrors.Is(err, ErrInvalidKind), "code %q", code)
		}

		_, err = f.svc.Kind(ctx, "SEA")
		assert.True(t, xerrors.Is(err, ErrKindNotFound))
		_, err = f.svc.History(ctx, "SEA", 10)
		assert.True(t, xerrors.Is(err, ErrKindNotFound))
	})
}

func TestKindCache(t *testing.T) {
	c, err := cache.New(&cache.Config{Driver: cache.DriverMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	svc, err := New(storage.NewMemory(), &Config{AllocatorFloor: 1}, WithCache(c))
	require.NoError(t, err)
	ctx := t.Context()

	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)

	kind, err := svc.Kind(ctx, "LAND")
	require.NoError(t, err)
	assert.Zero(t, kind.Supply)
	ok, err := c.Has(ctx, kindCacheKey("LAND"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Issue(ctx, IssueRequest{To: "alice", Kind: "LAND", Amount: 2, Coords: row(0, 2)})
	require.NoError(t, err)
	ok, err = c.Has(ctx, kindCacheKey("LAND"))
	require.NoError(t, err)
	assert.False(t, ok)

	kind, err = svc.Kind(ctx, "LAND")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), kind.Supply)
}

func TestNotifyFailureDoesNotUndoIssue(t *testing.T) {
	sent := &recorder{err: errors.New("broker down")}
	svc, err := New(storage.NewMemory(), &Config{AllocatorFloor: 1}, WithNotifier(sent))
	require.NoError(t, err)
	ctx := t.Context()

	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueRequest{To: "alice", Kind: "LAND", Amount: 1, Coords: row(0, 1)})
	require.NoError(t, err)

	assert.Len(t, sent.all(), 1)
	n, err := svc.Balance(ctx, "alice", "LAND")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestConcurrentIssueIsSerialized(t *testing.T) {
	svc, err := New(storage.NewMemory(), &Config{AllocatorFloor: 1})
	require.NoError(t, err)
	ctx := t.Context()
	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Issue(ctx, IssueRequest{
				To:     fmt.Sprintf("acct-%d", i%2),
				Kind:   "LAND",
				Amount: 2,
				Coords: row(int64(i), 2),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	kind, err := svc.Kind(ctx, "LAND")
	require.NoError(t, err)
	assert.Equal(t, uint64(2*workers), kind.Supply)

	union := rangeset.Set{}
	for _, acct := range []string{"acct-0", "acct-1"} {
		ids, err := svc.Holdings(ctx, acct, "LAND")
		require.NoError(t, err)
		assert.False(t, union.Overlaps(ids))
		union.Merge(ids)
	}
	assert.Equal(t, rangeset.Of(1, 2*workers), union)
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))

	_, err = New(storage.NewMemory(), &Config{MaxMemoLen: 300})
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))

	svc, err := New(storage.NewMemory(), nil)
	require.NoError(t, err)
	assert.Equal(t, "token_id", svc.cfg.AllocatorName)
	assert.Equal(t, 32, svc.cfg.MaxNameLen)
	assert.Equal(t, 256, svc.cfg.MaxMemoLen)
	assert.NoError(t, svc.Close())
}

func TestMutationSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc, err := New(storage.NewMemory(), &Config{AllocatorFloor: 1}, WithTracerProvider(tp))
	require.NoError(t, err)
	ctx := t.Context()

	_, err = svc.CreateKind(ctx, "LAND", "gov")
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, TransferRequest{From: "alice", To: "bob", Kind: "LAND", Amount: 1})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "nft.create", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "nft.transfer", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
