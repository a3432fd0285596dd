// Package idgen 分配全局唯一、单调递增的资产标识符。
//
// Allocator 维护“下一个可用标识符”。Peek 只读取不修改；Advance(n) 预留
// [first, first+n-1] 并返回 first。计数器只能前进，不提供回退或重置。
//
// 三种后端：
//   - Stored：计数器存放在调用方的存储事务中，随事务一起提交或回滚（默认）
//   - Redis：SETNX 初始化 + INCRBY 前进，跨进程共享，失败的发行会留下空洞
//   - Etcd：基于 ModRevision 的 CAS 前进
//
// 发行流程中 Advance 必须是最后一步，且返回值必须等于之前 Peek 的结果：
//
//	first, _ := alloc.Peek(ctx)
//	// ... 按 first+i 构造资产并记账 ...
//	got, err := alloc.Advance(ctx, n)
//	if err == nil && got != first {
//	    // 计数器被并发修改
//	}
package idgen

import "context"

// Allocator 标识符分配器
type Allocator interface {
	// Peek 返回下一个将被分配的标识符
	Peek(ctx context.Context) (uint64, error)

	// Advance 预留 n 个连续标识符并返回第一个，n 必须大于 0
	Advance(ctx context.Context, n uint64) (uint64, error)
}
