package perf

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/quill-ai/quill/config"
	"github.com/quill-ai/quill/metrics"
)

// ============================================================
// 🔍 回归监控器
// ============================================================

// 回归严重程度，按超出阈值的倍数划分
const (
	SeverityMinor    = "minor"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)

// Monitor 将当前测量值与存储的基线对比，对比结果一律发射基线对比
// 指标；变化幅度超出阈值时额外发射回归指标。指标值约定为"越大越差"
// （耗时、内存等）。
type Monitor struct {
	store     *Store
	registry  *metrics.Registry
	threshold float64
	logger    *zap.Logger
}

// NewMonitor 创建回归监控器，threshold 取自 Perf 配置（百分比）
func NewMonitor(store *Store, registry *metrics.Registry, cfg config.PerfConfig, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:     store,
		registry:  registry,
		threshold: cfg.RegressionThreshold,
		logger:    logger.With(zap.String("component", "perf_monitor")),
	}
}

// Check 对比当前值与基线并发射指标。无基线时以当前值建立首条基线，
// 不发射任何指标。返回是否判定为回归。
func (m *Monitor) Check(ctx context.Context, metric string, current float64) bool {
	baseline, ok := m.store.Get(metric)
	if !ok {
		m.store.Set(metric, current)
		m.logger.Debug("建立首条基线",
			zap.String("metric", metric),
			zap.Float64("value", current))
		return false
	}

	m.registry.RecordBaselineComparison(ctx, metrics.BaselineComparisonEvent{
		Metric:   metric,
		Current:  current,
		Baseline: baseline.Value,
	})

	pct, ok := metrics.PercentChange(current, baseline.Value)
	if !ok || pct <= m.threshold {
		return false
	}

	severity := m.severity(pct)
	m.logger.Warn("检测到性能回归",
		zap.String("metric", metric),
		zap.Float64("current", current),
		zap.Float64("baseline", baseline.Value),
		zap.Float64("percent_change", pct),
		zap.String("severity", severity))

	m.registry.RecordPerformanceRegression(ctx, metrics.RegressionEvent{
		Metric:   metric,
		Current:  current,
		Baseline: baseline.Value,
		Severity: severity,
	})
	return true
}

// severity 按超出阈值的倍数划分严重程度
func (m *Monitor) severity(pct float64) string {
	abs := math.Abs(pct)
	switch {
	case abs >= m.threshold*4:
		return SeverityCritical
	case abs >= m.threshold*2:
		return SeverityMajor
	default:
		return SeverityMinor
	}
}
