package rangeset

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/nftledger/xerrors"
)

func iv(lo, hi uint64) Interval { return Interval{Lo: lo, Hi: hi} }

func TestInsert(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		in   Interval
		want Set
	}{
		{"into empty", nil, iv(1, 5), Set{iv(1, 5)}},
		{"disjoint before", Set{iv(10, 12)}, iv(1, 3), Set{iv(1, 3), iv(10, 12)}},
		{"disjoint after", Set{iv(1, 3)}, iv(10, 12), Set{iv(1, 3), iv(10, 12)}},
		{"disjoint middle", Set{iv(1, 3), iv(20, 22)}, iv(10, 12), Set{iv(1, 3), iv(10, 12), iv(20, 22)}},
		{"adjacent to predecessor", Set{iv(1, 3)}, iv(4, 6), Set{iv(1, 6)}},
		{"adjacent to successor", Set{iv(7, 9)}, iv(4, 6), Set{iv(4, 9)}},
		{"bridges two", Set{iv(1, 3), iv(7, 9)}, iv(4, 6), Set{iv(1, 9)}},
		{"overlaps predecessor", Set{iv(1, 5)}, iv(3, 8), Set{iv(1, 8)}},
		{"overlaps successor", Set{iv(5, 9)}, iv(2, 6), Set{iv(2, 9)}},
		{"swallows several", Set{iv(2, 3), iv(5, 6), iv(8, 9), iv(20, 21)}, iv(1, 10), Set{iv(1, 10), iv(20, 21)}},
		{"contained", Set{iv(1, 10)}, iv(3, 4), Set{iv(1, 10)}},
		{"same start", Set{iv(5, 6)}, iv(5, 9), Set{iv(5, 9)}},
		{"single point gap kept", Set{iv(1, 3)}, iv(5, 6), Set{iv(1, 3), iv(5, 6)}},
		{"zero identifier", Set{iv(2, 4)}, iv(0, 0), Set{iv(0, 0), iv(2, 4)}},
		{"zero adjacent", Set{iv(1, 4)}, iv(0, 0), Set{iv(0, 4)}},
		{"max identifier", Set{iv(1, 2)}, iv(math.MaxUint64, math.MaxUint64), Set{iv(1, 2), iv(math.MaxUint64, math.MaxUint64)}},
		{"max adjacent", Set{iv(math.MaxUint64, math.MaxUint64)}, iv(math.MaxUint64-3, math.MaxUint64-1), Set{iv(math.MaxUint64-3, math.MaxUint64)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.set.Clone()
			require.NoError(t, s.Insert(tt.in))
			assert.Equal(t, tt.want, s)
			assert.NoError(t, s.Validate())
		})
	}
}

func TestInsertRejectsMalformedRange(t *testing.T) {
	s := Set{iv(1, 3)}

	err := s.Insert(iv(5, 4))
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, ErrInvalidRange))
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
	assert.Equal(t, CodeInvalidRange, xerrors.GetCode(err))
	assert.Equal(t, Set{iv(1, 3)}, s)

	assert.Error(t, s.Insert(iv(0, math.MaxUint64)))
	assert.Equal(t, Set{iv(1, 3)}, s)
}

func TestInsertIdempotent(t *testing.T) {
	s := Set{iv(1, 3), iv(7, 9)}
	for _, r := range []Interval{iv(1, 3), iv(7, 9), iv(2, 2), iv(8, 9)} {
		require.NoError(t, s.Insert(r))
		assert.Equal(t, Set{iv(1, 3), iv(7, 9)}, s)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b Set
		want Set
	}{
		{"adjacent coalesce", Set{iv(1, 3)}, Set{iv(4, 10)}, Set{iv(1, 10)}},
		{"empty other", Set{iv(1, 3)}, nil, Set{iv(1, 3)}},
		{"empty receiver", nil, Set{iv(4, 6), iv(9, 9)}, Set{iv(4, 6), iv(9, 9)}},
		{"interleaved", Set{iv(1, 2), iv(10, 12)}, Set{iv(5, 6), iv(20, 21)}, Set{iv(1, 2), iv(5, 6), iv(10, 12), iv(20, 21)}},
		{"overlapping", Set{iv(1, 5), iv(10, 15)}, Set{iv(4, 11)}, Set{iv(1, 15)}},
		{"other contained", Set{iv(1, 100)}, Set{iv(5, 6), iv(50, 60)}, Set{iv(1, 100)}},
		{"chain of adjacency", Set{iv(1, 1), iv(3, 3), iv(5, 5)}, Set{iv(2, 2), iv(4, 4)}, Set{iv(1, 5)}},
		{"max boundary", Set{iv(math.MaxUint64-1, math.MaxUint64)}, Set{iv(math.MaxUint64-5, math.MaxUint64-2)}, Set{iv(math.MaxUint64-5, math.MaxUint64)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.a.Clone()
			b := tt.b.Clone()
			a.Merge(b)
			assert.Equal(t, tt.want, a)
			assert.NoError(t, a.Validate())
			// other 不被修改
			assert.Equal(t, tt.b, b)
		})
	}
}

func TestMergeEmptyReceiverDoesNotAlias(t *testing.T) {
	var a Set
	b := Set{iv(1, 3)}
	a.Merge(b)
	a[0].Hi = 99
	assert.Equal(t, Set{iv(1, 3)}, b)
}

func TestSubtractTail(t *testing.T) {
	tests := []struct {
		name        string
		set         Set
		amount      uint64
		wantRemoved Set
		wantLeft    Set
	}{
		{"split single", Set{iv(1, 5)}, 2, Set{iv(4, 5)}, Set{iv(1, 3)}},
		{"tail of large", Set{iv(1, 10)}, 3, Set{iv(8, 10)}, Set{iv(1, 7)}},
		{"whole set", Set{iv(1, 3), iv(7, 9)}, 6, Set{iv(1, 3), iv(7, 9)}, Set{}},
		{"exact last interval", Set{iv(1, 3), iv(7, 9)}, 3, Set{iv(7, 9)}, Set{iv(1, 3)}},
		{"spans boundary", Set{iv(1, 3), iv(7, 9)}, 4, Set{iv(3, 3), iv(7, 9)}, Set{iv(1, 2)}},
		{"across many", Set{iv(1, 4), iv(6, 6), iv(8, 9), iv(11, 12)}, 6, Set{iv(4, 4), iv(6, 6), iv(8, 9), iv(11, 12)}, Set{iv(1, 3)}},
		{"zero amount", Set{iv(1, 5)}, 0, Set{}, Set{iv(1, 5)}},
		{"single identifier", Set{iv(1, 5)}, 1, Set{iv(5, 5)}, Set{iv(1, 4)}},
		{"at max", Set{iv(math.MaxUint64-2, math.MaxUint64)}, 2, Set{iv(math.MaxUint64-1, math.MaxUint64)}, Set{iv(math.MaxUint64-2, math.MaxUint64-2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.set.Clone()
			removed, err := s.SubtractTail(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, len(tt.wantLeft), len(s))
			if len(tt.wantLeft) > 0 {
				assert.Equal(t, tt.wantLeft, s)
			}
			assert.Equal(t, tt.amount, removed.Len())
			assert.NoError(t, s.Validate())
			assert.NoError(t, removed.Validate())
		})
	}
}

func TestSubtractTailInsufficient(t *testing.T) {
	s := Set{iv(1, 3)}
	removed, err := s.SubtractTail(4)
	require.Error(t, err)
	assert.Nil(t, removed)
	assert.True(t, xerrors.Is(err, ErrInsufficient))
	assert.Equal(t, Set{iv(1, 3)}, s)

	var empty Set
	_, err = empty.SubtractTail(1)
	assert.True(t, xerrors.Is(err, ErrInsufficient))
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		id   uint64
		want Set
	}{
		{"sole unit", Set{iv(4, 4)}, 4, Set{}},
		{"isolated among many", Set{iv(1, 2), iv(4, 4), iv(6, 7)}, 4, Set{iv(1, 2), iv(6, 7)}},
		{"low end", Set{iv(1, 5)}, 1, Set{iv(2, 5)}},
		{"high end", Set{iv(1, 5)}, 5, Set{iv(1, 4)}},
		{"split middle", Set{iv(1, 5), iv(9, 9)}, 3, Set{iv(1, 2), iv(4, 5), iv(9, 9)}},
		{"max identifier", Set{iv(math.MaxUint64-1, math.MaxUint64)}, math.MaxUint64, Set{iv(math.MaxUint64-1, math.MaxUint64-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.set.Clone()
			require.NoError(t, s.Remove(tt.id))
			assert.Equal(t, len(tt.want), len(s))
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, s)
			}
			assert.NoError(t, s.Validate())
			assert.False(t, s.Contains(tt.id))
		})
	}
}

func TestRemoveMissing(t *testing.T) {
	s := Set{iv(1, 3), iv(7, 9)}
	for _, id := range []uint64{0, 4, 6, 10} {
		err := s.Remove(id)
		assert.True(t, xerrors.Is(err, ErrNotFound), "id %d", id)
	}
	assert.Equal(t, Set{iv(1, 3), iv(7, 9)}, s)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     Set
		wantErr error
	}{
		{"empty", nil, nil},
		{"valid", Set{iv(1, 3), iv(5, 5)}, nil},
		{"inverted", Set{iv(3, 1)}, ErrInvalidRange},
		{"unsorted", Set{iv(5, 6), iv(1, 2)}, ErrMalformedSet},
		{"overlapping", Set{iv(1, 5), iv(4, 8)}, ErrMalformedSet},
		{"adjacent not coalesced", Set{iv(1, 3), iv(4, 8)}, ErrMalformedSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, xerrors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestQueries(t *testing.T) {
	s := Set{iv(1, 3), iv(7, 9)}

	assert.Equal(t, uint64(6), s.Len())
	assert.Equal(t, "{[1,3],[7,9]}", s.String())
	assert.Equal(t, "{}", Set(nil).String())
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(8))
	assert.False(t, s.Contains(5))
	assert.False(t, s.Contains(0))

	assert.True(t, s.Overlaps(Set{iv(3, 4)}))
	assert.True(t, s.Overlaps(Set{iv(0, 0), iv(9, 12)}))
	assert.False(t, s.Overlaps(Set{iv(4, 6), iv(10, 11)}))
	assert.False(t, s.Overlaps(nil))

	assert.Equal(t, []uint64{1, 2, 3, 7, 8, 9}, slices.Collect(s.IDs()))
	assert.Equal(t, []uint64{math.MaxUint64}, slices.Collect(Of(math.MaxUint64, math.MaxUint64).IDs()))

	assert.Panics(t, func() { Of(2, 1) })
}

// model 用位图作为参照实现
type model map[uint64]bool

func (m model) set() Set {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var s Set
	for _, id := range ids {
		if n := len(s); n > 0 && s[n-1].Hi+1 == id {
			s[n-1].Hi = id
			continue
		}
		s = append(s, iv(id, id))
	}
	return s
}

func randomSet(r *rand.Rand, universe uint64) (Set, model) {
	m := model{}
	var s Set
	for range r.IntN(8) {
		lo := r.Uint64N(universe)
		hi := lo + r.Uint64N(6)
		for id := lo; id <= hi; id++ {
			m[id] = true
		}
		_ = s.Insert(iv(lo, hi))
	}
	return s, m
}

func TestRandomizedAgainstModel(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for i := range 500 {
		a, ma := randomSet(r, 64)
		require.NoError(t, a.Validate(), "iteration %d", i)
		require.Equal(t, ma.set(), nilIfEmpty(a), "iteration %d", i)

		b, mb := randomSet(r, 64)
		merged := a.Clone()
		merged.Merge(b)
		for id := range mb {
			ma[id] = true
		}
		require.NoError(t, merged.Validate())
		require.Equal(t, ma.set(), nilIfEmpty(merged), "merge iteration %d", i)

		// 守恒与重建
		before := merged.Clone()
		total := merged.Len()
		amount := uint64(0)
		if total > 0 {
			amount = r.Uint64N(total + 1)
		}
		removed, err := merged.SubtractTail(amount)
		require.NoError(t, err)
		require.Equal(t, total, merged.Len()+removed.Len())
		require.NoError(t, merged.Validate())
		require.NoError(t, removed.Validate())
		if len(merged) > 0 && len(removed) > 0 {
			require.Less(t, merged[len(merged)-1].Hi, removed[0].Lo)
		}
		rebuilt := merged.Clone()
		rebuilt.Merge(removed)
		require.Equal(t, nilIfEmpty(before), nilIfEmpty(rebuilt), "rebuild iteration %d", i)
	}
}

func nilIfEmpty(s Set) Set {
	if len(s) == 0 {
		return nil
	}
	return s
}
