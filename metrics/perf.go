// =============================================================================
// 📈 性能监控层记录 API
// =============================================================================
// 性能层仪表在 Initialize 期间按遥测开关激活一次，此后每次记录调用
// 重新检查该开关。比值类指标（回归百分比、基线对比）对零基线做内联
// 保护：跳过记录并输出诊断日志，绝不发射 Inf/NaN。
// =============================================================================
package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RecordStartupDuration 记录 CLI 启动耗时
func (r *Registry) RecordStartupDuration(ctx context.Context, d time.Duration) {
	if !r.perfReady() || r.startupDuration == nil {
		return
	}
	r.startupDuration.Record(ctx, durationMillis(d), r.mergeAttrs())
}

// RecordMemoryUsage 记录一次内存用量采样
func (r *Registry) RecordMemoryUsage(ctx context.Context, ev MemoryUsageEvent) {
	if !r.perfReady() || r.memoryUsage == nil {
		return
	}
	r.memoryUsage.Record(ctx, ev.Bytes, r.mergeAttrs(
		AttrComponent.String(string(ev.Component)),
	))
}

// RecordCPUUsage 记录一次 CPU 用量采样（百分比）
func (r *Registry) RecordCPUUsage(ctx context.Context, percent float64) {
	if !r.perfReady() || r.cpuUsage == nil {
		return
	}
	r.cpuUsage.Record(ctx, percent, r.mergeAttrs())
}

// RecordToolQueueDepth 记录待执行工具队列深度
func (r *Registry) RecordToolQueueDepth(ctx context.Context, depth int64) {
	if !r.perfReady() || r.toolQueueDepth == nil {
		return
	}
	r.toolQueueDepth.Record(ctx, depth, r.mergeAttrs())
}

// RecordTokenEfficiency 记录 Token 吞吐率
func (r *Registry) RecordTokenEfficiency(ctx context.Context, ev TokenEfficiencyEvent) {
	if !r.perfReady() || r.tokenEfficiency == nil {
		return
	}
	r.tokenEfficiency.Record(ctx, ev.TokensPerSecond, r.mergeAttrs(
		AttrModel.String(ev.Model),
	))
}

// RecordAPIRequestBreakdown 记录模型 API 请求的阶段耗时
func (r *Registry) RecordAPIRequestBreakdown(ctx context.Context, ev APIBreakdownEvent) {
	if !r.perfReady() || r.apiBreakdown == nil {
		return
	}
	r.apiBreakdown.Record(ctx, durationMillis(ev.Duration), r.mergeAttrs(
		AttrModel.String(ev.Model),
		AttrPhase.String(string(ev.Phase)),
	))
}

// RecordPerformanceScore 记录综合性能评分（0-100）
func (r *Registry) RecordPerformanceScore(ctx context.Context, category string, score float64) {
	if !r.perfReady() || r.performanceScore == nil {
		return
	}
	r.performanceScore.Record(ctx, score, r.mergeAttrs(
		AttrCategory.String(category),
	))
}

// RecordPerformanceRegression 记录一次性能回归：检测事件计数 +1，
// 并将相对基线的变化百分比写入分布。基线为零时跳过百分比记录。
func (r *Registry) RecordPerformanceRegression(ctx context.Context, ev RegressionEvent) {
	if !r.perfReady() {
		return
	}

	if r.regressionCount != nil {
		r.regressionCount.Add(ctx, 1, r.mergeAttrs(
			AttrMetric.String(ev.Metric),
			AttrSeverity.String(ev.Severity),
		))
	}

	pct, ok := PercentChange(ev.Current, ev.Baseline)
	if !ok {
		r.logger.Warn("zero baseline, skipping regression percentage",
			zap.String("metric", ev.Metric),
			zap.Float64("current", ev.Current))
		return
	}
	if r.regressionPercent != nil {
		r.regressionPercent.Record(ctx, pct, r.mergeAttrs(
			AttrMetric.String(ev.Metric),
		))
	}
}

// RecordBaselineComparison 记录当前值相对存储基线的变化百分比。
// 基线恰为零时不做任何记录，仅输出诊断日志。
func (r *Registry) RecordBaselineComparison(ctx context.Context, ev BaselineComparisonEvent) {
	if !r.perfReady() || r.baselineComparison == nil {
		return
	}

	pct, ok := PercentChange(ev.Current, ev.Baseline)
	if !ok {
		r.logger.Warn("zero baseline, skipping baseline comparison",
			zap.String("metric", ev.Metric),
			zap.Float64("current", ev.Current))
		return
	}

	r.baselineComparison.Record(ctx, pct, r.mergeAttrs(
		AttrMetric.String(ev.Metric),
	))
}

// PercentChange 计算 ((current-baseline)/baseline)*100。
// 基线恰为零时返回 ok=false；负基线视为合法输入，按同一公式计算。
func PercentChange(current, baseline float64) (pct float64, ok bool) {
	if baseline == 0 {
		return 0, false
	}
	return (current - baseline) / baseline * 100, true
}
