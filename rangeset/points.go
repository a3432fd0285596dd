package rangeset

import (
	"fmt"
	"math"
	"math/bits"
)

// Point 平面坐标
type Point struct {
	Lat int64 `json:"lat" msgpack:"lat"`
	Lon int64 `json:"lon" msgpack:"lon"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Lat, p.Lon)
}

// PointRange 由两个对角点确定的矩形，角点顺序任意
type PointRange struct {
	A Point `json:"a" msgpack:"a"`
	B Point `json:"b" msgpack:"b"`
}

// RangeLength 矩形包含的格点数 (|A.Lat-B.Lat|+1) * (|A.Lon-B.Lon|+1)
//
// 结果超出 uint64 时饱和为 math.MaxUint64。
func RangeLength(r PointRange) uint64 {
	rows, ok1 := span(r.A.Lat, r.B.Lat)
	cols, ok2 := span(r.A.Lon, r.B.Lon)
	if !ok1 || !ok2 {
		return math.MaxUint64
	}
	hi, lo := bits.Mul64(rows, cols)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// span 返回 |a-b|+1，ok 为 false 表示溢出
func span(a, b int64) (uint64, bool) {
	if a < b {
		a, b = b, a
	}
	// 补码减法得到的就是无符号意义下的差值
	d := uint64(a) - uint64(b)
	if d == math.MaxUint64 {
		return 0, false
	}
	return d + 1, true
}

// Points 按行优先（先 Lat 后 Lon）升序枚举矩形内的所有格点
//
// 调用方应先用 RangeLength 限制规模。
func (r PointRange) Points() []Point {
	latLo, latHi := min(r.A.Lat, r.B.Lat), max(r.A.Lat, r.B.Lat)
	lonLo, lonHi := min(r.A.Lon, r.B.Lon), max(r.A.Lon, r.B.Lon)

	n := RangeLength(r)
	if n > math.MaxInt32 {
		n = 0
	}
	out := make([]Point, 0, n)
	for lat := latLo; ; lat++ {
		for lon := lonLo; ; lon++ {
			out = append(out, Point{Lat: lat, Lon: lon})
			if lon == lonHi {
				break
			}
		}
		if lat == latHi {
			break
		}
	}
	return out
}
