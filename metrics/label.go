package metrics

// Label 指标标签
//
// 标签值应保持低基数：按资产类型、操作、结果分组，不要按账户或标识符分组。
type Label struct {
	Key   string
	Value string
}

// L 创建一个 Label
//
//	counter.Inc(ctx, metrics.L("kind", "LAND"), metrics.L("outcome", metrics.OutcomeSuccess))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// 常用标签与取值
const (
	LabelKind      = "kind"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Outcome 将 err 映射为 outcome 标签值
func Outcome(err error) Label {
	if err != nil {
		return L(LabelOutcome, OutcomeError)
	}
	return L(LabelOutcome, OutcomeSuccess)
}
