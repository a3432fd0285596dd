// Package rangeset 实现闭区间集合，用于记录账户持有的标识符。
//
// Set 始终满足三条不变量：
//   - 按 Lo 严格递增
//   - 区间两两不相交
//   - 最大合并：相邻区间满足 a.Hi+1 < b.Lo
//
// 所有修改操作要么完整生效，要么返回错误且不修改集合。
// 相邻判断不计算 Hi+1，标识符取到 math.MaxUint64 也不会溢出。
package rangeset

import (
	"fmt"
	"math"
)

// Interval 闭区间 [Lo, Hi]
type Interval struct {
	Lo uint64 `json:"lo" msgpack:"lo"`
	Hi uint64 `json:"hi" msgpack:"hi"`
}

// Len 区间包含的标识符个数
func (r Interval) Len() uint64 {
	return r.Hi - r.Lo + 1
}

// Valid 区间合法：Lo <= Hi，且长度可用 uint64 表示
func (r Interval) Valid() bool {
	return r.Lo <= r.Hi && !(r.Lo == 0 && r.Hi == math.MaxUint64)
}

// Contains 判断 id 是否落在区间内
func (r Interval) Contains(id uint64) bool {
	return r.Lo <= id && id <= r.Hi
}

func (r Interval) String() string {
	return fmt.Sprintf("[%d,%d]", r.Lo, r.Hi)
}

// touches 判断以 hi 结尾的区间与以 lo 开头的区间是否重叠或紧邻
func touches(hi, lo uint64) bool {
	return lo <= hi || lo-hi == 1
}
