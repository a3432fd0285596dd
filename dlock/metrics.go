package dlock

import (
	"context"
	"time"

	"github.com/ceyewan/nftledger/metrics"
	"github.com/ceyewan/nftledger/xerrors"
)

// 指标名称
const (
	MetricAcquireTotal = "nftledger_dlock_acquire_total"
	MetricHoldDuration = "nftledger_dlock_hold_duration_seconds"
)

// 指标标签
const (
	LabelDriver = "driver"
	LabelResult = "result"
)

type recorder struct {
	driver   string
	acquires metrics.Counter
	hold     metrics.Histogram
}

func newRecorder(meter metrics.Meter, driver string) (*recorder, error) {
	acquires, err := meter.Counter(MetricAcquireTotal, "加锁尝试次数")
	if err != nil {
		return nil, xerrors.Wrap(err, "create acquire counter")
	}
	hold, err := meter.Histogram(MetricHoldDuration, "锁持有时长", metrics.WithUnit("s"))
	if err != nil {
		return nil, xerrors.Wrap(err, "create hold histogram")
	}
	return &recorder{driver: driver, acquires: acquires, hold: hold}, nil
}

// acquired result: acquired | busy | error
func (r *recorder) acquired(ctx context.Context, result string) {
	r.acquires.Inc(ctx, metrics.L(LabelDriver, r.driver), metrics.L(LabelResult, result))
}

func (r *recorder) released(ctx context.Context, since time.Time) {
	r.hold.Record(ctx, time.Since(since).Seconds(), metrics.L(LabelDriver, r.driver))
}
