package idgen

// MetricAllocatedTotal 已分配的标识符数量 (Counter)，按 driver 分组
const MetricAllocatedTotal = "nftledger_idgen_allocated_total"
