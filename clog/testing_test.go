package clog

import "bytes"

// withBuffer 将日志写入 buf，仅供测试使用，需配合 Output: "buffer"
func withBuffer(buf *bytes.Buffer) Option {
	return func(o *options) {
		o.buffer = buf
	}
}
