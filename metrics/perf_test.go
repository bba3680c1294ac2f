// 性能监控层记录 API 测试。
package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedRegistry 返回带日志捕获的注册表
func newObservedRegistry(t *testing.T) (*Registry, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRegistry(zap.New(core)), logs
}

// --- 基线对比 ---

func TestRecordBaselineComparison_ZeroBaseline(t *testing.T) {
	r, logs := newObservedRegistry(t)
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	r.RecordBaselineComparison(context.Background(), BaselineComparisonEvent{
		Metric:   "startup.duration",
		Current:  50,
		Baseline: 0,
	})

	// 不记录、不 panic，输出一条警告
	rm := collect(t, reader)
	_, found := findMetric(rm, MetricBaselineComparison)
	assert.False(t, found)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "zero baseline")
}

func TestRecordBaselineComparison_RecordsPercent(t *testing.T) {
	r, logs := newObservedRegistry(t)
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	r.RecordBaselineComparison(context.Background(), BaselineComparisonEvent{
		Metric:   "startup.duration",
		Current:  150,
		Baseline: 100,
	})

	rm := collect(t, reader)
	m, found := findMetric(rm, MetricBaselineComparison)
	require.True(t, found)
	points := histogramPoints(t, m)
	require.Len(t, points, 1)
	assert.InDelta(t, 50.0, points[0].Sum, 0.001)

	v, ok := points[0].Attributes.Value(AttrMetric)
	require.True(t, ok)
	assert.Equal(t, "startup.duration", v.AsString())

	assert.Empty(t, logs.FilterLevelExact(zapcore.WarnLevel).All())
}

// --- 回归检测 ---

func TestRecordPerformanceRegression(t *testing.T) {
	r, _ := newObservedRegistry(t)
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	r.RecordPerformanceRegression(context.Background(), RegressionEvent{
		Metric:   "token.throughput",
		Current:  80,
		Baseline: 100,
		Severity: "minor",
	})

	rm := collect(t, reader)

	// 检测事件计数 +1
	m, found := findMetric(rm, MetricRegressionCount)
	require.True(t, found)
	assert.Equal(t, int64(1), sumValue(t, m))

	// 变化百分比 -20
	m, found = findMetric(rm, MetricRegressionPercent)
	require.True(t, found)
	points := histogramPoints(t, m)
	require.Len(t, points, 1)
	assert.InDelta(t, -20.0, points[0].Sum, 0.001)
}

func TestRecordPerformanceRegression_ZeroBaselineStillCounts(t *testing.T) {
	r, logs := newObservedRegistry(t)
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	r.RecordPerformanceRegression(context.Background(), RegressionEvent{
		Metric:   "memory.heap",
		Current:  64,
		Baseline: 0,
	})

	rm := collect(t, reader)

	// 检测事件仍然计数，百分比被跳过
	m, found := findMetric(rm, MetricRegressionCount)
	require.True(t, found)
	assert.Equal(t, int64(1), sumValue(t, m))

	_, found = findMetric(rm, MetricRegressionPercent)
	assert.False(t, found)
	require.Len(t, logs.FilterLevelExact(zapcore.WarnLevel).All(), 1)
}

// --- 其余性能探针 ---

func TestPerfRecorders_EmitWithAttributes(t *testing.T) {
	r, _ := newObservedRegistry(t)
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	ctx := context.Background()
	r.RecordStartupDuration(ctx, 650*time.Millisecond)
	r.RecordMemoryUsage(ctx, MemoryUsageEvent{Component: MemoryHeap, Bytes: 128 << 20})
	r.RecordCPUUsage(ctx, 12.5)
	r.RecordToolQueueDepth(ctx, 3)
	r.RecordTokenEfficiency(ctx, TokenEfficiencyEvent{Model: "gpt-4o", TokensPerSecond: 42})
	r.RecordAPIRequestBreakdown(ctx, APIBreakdownEvent{Model: "gpt-4o", Phase: PhaseFirstByte, Duration: 180 * time.Millisecond})
	r.RecordPerformanceScore(ctx, "overall", 87.5)

	rm := collect(t, reader)

	m, found := findMetric(rm, MetricStartupDuration)
	require.True(t, found)
	assert.InDelta(t, 650.0, histogramPoints(t, m)[0].Sum, 0.001)

	m, found = findMetric(rm, MetricMemoryUsage)
	require.True(t, found)
	h, ok := m.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	v, ok := h.DataPoints[0].Attributes.Value(AttrComponent)
	require.True(t, ok)
	assert.Equal(t, "heap", v.AsString())

	m, found = findMetric(rm, MetricAPIBreakdown)
	require.True(t, found)
	points := histogramPoints(t, m)
	require.Len(t, points, 1)
	v, ok = points[0].Attributes.Value(AttrPhase)
	require.True(t, ok)
	assert.Equal(t, "first_byte", v.AsString())

	m, found = findMetric(rm, MetricPerformanceScore)
	require.True(t, found)
	points = histogramPoints(t, m)
	require.Len(t, points, 1)
	assert.InDelta(t, 87.5, points[0].Sum, 0.001)
	v, ok = points[0].Attributes.Value(AttrCategory)
	require.True(t, ok)
	assert.Equal(t, "overall", v.AsString())
}

// --- PercentChange ---

func TestPercentChange(t *testing.T) {
	pct, ok := PercentChange(150, 100)
	require.True(t, ok)
	assert.InDelta(t, 50, pct, 0.001)

	pct, ok = PercentChange(80, 100)
	require.True(t, ok)
	assert.InDelta(t, -20, pct, 0.001)

	_, ok = PercentChange(1, 0)
	assert.False(t, ok)

	// 负基线按同一公式计算（未做额外校验的边界情形）
	pct, ok = PercentChange(-80, -100)
	require.True(t, ok)
	assert.InDelta(t, -20, pct, 0.001)
}
