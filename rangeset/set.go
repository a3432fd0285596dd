package rangeset

import (
	"iter"
	"sort"
	"strings"

	"github.com/ceyewan/nftledger/xerrors"
)

// Set 有序、不相交、最大合并的闭区间集合，零值为空集合
type Set []Interval

// Of 创建只包含 [lo, hi] 的集合，lo > hi 时 panic
func Of(lo, hi uint64) Set {
	r := Interval{Lo: lo, Hi: hi}
	if !r.Valid() {
		panic("rangeset: Of called with invalid range " + r.String())
	}
	return Set{r}
}

// Len 集合包含的标识符总数
func (s Set) Len() uint64 {
	var n uint64
	for _, r := range s {
		n += r.Len()
	}
	return n
}

// Empty 集合是否为空
func (s Set) Empty() bool {
	return len(s) == 0
}

// Clone 深拷贝
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Validate 检查集合不变量
func (s Set) Validate() error {
	for i, r := range s {
		if !r.Valid() {
			return xerrors.WithCode(xerrors.Wrapf(ErrInvalidRange, "interval %d %s", i, r), CodeInvalidRange)
		}
		if i > 0 && touches(s[i-1].Hi, r.Lo) {
			return xerrors.WithCode(xerrors.Wrapf(ErrMalformedSet, "intervals %s and %s overlap or are adjacent", s[i-1], r), CodeMalformedSet)
		}
	}
	return nil
}

// Contains 二分查找 id 是否在集合中
func (s Set) Contains(id uint64) bool {
	k := s.search(id)
	return k >= 0 && s[k].Contains(id)
}

// Overlaps 判断两个集合是否有公共标识符，O(|s|+|other|)
func (s Set) Overlaps(other Set) bool {
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		a, b := s[i], other[j]
		if a.Hi < b.Lo {
			i++
			continue
		}
		if b.Hi < a.Lo {
			j++
			continue
		}
		return true
	}
	return false
}

// IDs 按升序遍历集合中的每个标识符
func (s Set) IDs() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, r := range s {
			for id := r.Lo; ; id++ {
				if !yield(id) {
					return
				}
				if id == r.Hi {
					break
				}
			}
		}
	}
}

func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, r := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(r.String())
	}
	b.WriteByte('}')
	return b.String()
}

// search 返回最后一个 Lo <= id 的下标，不存在时返回 -1
func (s Set) search(id uint64) int {
	return sort.Search(len(s), func(k int) bool { return s[k].Lo > id }) - 1
}

// Insert 插入区间 r，吸收与之重叠或紧邻的前驱和后继区间
func (s *Set) Insert(r Interval) error {
	if !r.Valid() {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidRange, "insert %s", r), CodeInvalidRange)
	}

	set := *s
	// end: 第一个 Lo > r.Lo 的位置；stop: 第一个与 r 既不重叠也不紧邻的后继位置
	end := sort.Search(len(set), func(k int) bool { return set[k].Lo > r.Lo })
	stop := sort.Search(len(set), func(k int) bool { return !touches(r.Hi, set[k].Lo) })

	start := end
	if end > 0 && touches(set[end-1].Hi, r.Lo) {
		start = end - 1
	}

	if start == stop {
		set = append(set, Interval{})
		copy(set[start+1:], set[start:])
		set[start] = r
		*s = set
		return nil
	}

	merged := r
	merged.Lo = min(merged.Lo, set[start].Lo)
	merged.Hi = max(merged.Hi, set[stop-1].Hi)
	set[start] = merged
	*s = append(set[:start+1], set[stop:]...)
	return nil
}

// Merge 将 other 并入集合，两个输入都必须满足集合不变量
func (s *Set) Merge(other Set) {
	if len(other) == 0 {
		return
	}
	if len(*s) == 0 {
		*s = other.Clone()
		return
	}

	a, b := *s, other
	out := make(Set, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next Interval
		if j >= len(b) || (i < len(a) && a[i].Lo <= b[j].Lo) {
			next = a[i]
			i++
		} else {
			next = b[j]
			j++
		}

		if n := len(out); n > 0 && touches(out[n-1].Hi, next.Lo) {
			out[n-1].Hi = max(out[n-1].Hi, next.Hi)
			continue
		}
		out = append(out, next)
	}
	*s = out
}

// SubtractTail 从最大的标识符开始移除 amount 个标识符，返回升序排列的被移除部分
//
// amount 大于 Len() 时返回 ErrInsufficient，集合保持不变；amount 为 0 时返回空集合。
func (s *Set) SubtractTail(amount uint64) (Set, error) {
	if amount == 0 {
		return Set{}, nil
	}
	if total := s.Len(); amount > total {
		return nil, xerrors.Wrapf(ErrInsufficient, "subtract %d from %d", amount, total)
	}

	set := *s
	remaining := amount
	i := len(set)
	for remaining > 0 && set[i-1].Len() <= remaining {
		remaining -= set[i-1].Len()
		i--
	}

	removed := make(Set, 0, len(set)-i+1)
	if remaining > 0 {
		// set[i-1] 被拆分：保留低位部分，高位 remaining 个移除
		boundary := set[i-1]
		split := boundary.Hi - remaining + 1
		removed = append(removed, Interval{Lo: split, Hi: boundary.Hi})
		set[i-1].Hi = split - 1
	}
	removed = append(removed, set[i:]...)

	clear(set[i:])
	*s = set[:i]
	return removed, nil
}

// Remove 移除单个标识符，必要时拆分所在区间
func (s *Set) Remove(id uint64) error {
	set := *s
	k := set.search(id)
	if k < 0 || !set[k].Contains(id) {
		return xerrors.Wrapf(ErrNotFound, "identifier %d", id)
	}

	r := set[k]
	switch {
	case r.Lo == r.Hi:
		*s = append(set[:k], set[k+1:]...)
	case id == r.Lo:
		set[k].Lo++
	case id == r.Hi:
		set[k].Hi--
	default:
		set = append(set, Interval{})
		copy(set[k+2:], set[k+1:])
		set[k] = Interval{Lo: r.Lo, Hi: id - 1}
		set[k+1] = Interval{Lo: id + 1, Hi: r.Hi}
		*s = set
	}
	return nil
}
