// 仪表注册表与发射门控测试。
package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/quill-ai/quill/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// --- 测试辅助 ---

// testConfig 返回带固定会话 ID 的配置
func testConfig(telemetryEnabled bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Session.ID = "test-session"
	cfg.Telemetry.Enabled = telemetryEnabled
	return cfg
}

// newCaptureProvider 返回带 ManualReader 的 MeterProvider，用于捕获发射
func newCaptureProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return provider, reader
}

// collect 拉取当前累积的全部指标
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findMetric 按线上名称查找已捕获指标
func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// sumValue 汇总 Int64 计数器全部数据点
func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

// histogramPoints 返回 Float64 直方图的全部数据点
func histogramPoints(t *testing.T, m metricdata.Metrics) []metricdata.HistogramDataPoint[float64] {
	t.Helper()
	h, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "metric %s is not a float64 histogram", m.Name)
	return h.DataPoints
}

// --- 初始化前记录 ---

func TestRecord_BeforeInitialize_NoOp(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	ctx := context.Background()

	// 初始化之前的所有记录调用都必须静默丢弃，不 panic
	r.RecordToolCall(ctx, ToolCallEvent{FunctionName: "read_file", Duration: time.Second, Success: true})
	r.RecordAPIResponse(ctx, APIResponseEvent{Model: "gpt-4o", Duration: time.Second, StatusCode: 200})
	r.RecordTokenUsage(ctx, TokenUsageEvent{Model: "gpt-4o", Count: 10, Type: TokenInput})
	r.RecordCPUUsage(ctx, 42)

	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	rm := collect(t, reader)
	// 初始化前的调用没有留下任何痕迹；唯一的发射是会话启动计数
	_, found := findMetric(rm, MetricToolCallCount)
	assert.False(t, found, "pre-init tool call must not be recorded")
	_, found = findMetric(rm, MetricTokenUsage)
	assert.False(t, found, "pre-init token usage must not be recorded")

	m, found := findMetric(rm, MetricSessionCount)
	require.True(t, found)
	assert.Equal(t, int64(1), sumValue(t, m))
}

// --- 幂等初始化 ---

func TestInitialize_Idempotent(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	provider, reader := newCaptureProvider()
	cfg := testConfig(true)

	require.NoError(t, r.Initialize(provider, cfg))
	require.NoError(t, r.Initialize(provider, cfg))
	require.NoError(t, r.Initialize(provider, cfg))

	assert.True(t, r.Initialized())

	// 会话计数恰好一次
	rm := collect(t, reader)
	m, found := findMetric(rm, MetricSessionCount)
	require.True(t, found)
	assert.Equal(t, int64(1), sumValue(t, m))
}

func TestInitialize_NilProvider(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))

	// 遥测整体禁用：不报错、不 panic，所有记录调用都是 no-op
	require.NoError(t, r.Initialize(nil, testConfig(false)))
	assert.True(t, r.Initialized())
	assert.False(t, r.PerformanceMonitoringEnabled())

	ctx := context.Background()
	r.RecordToolCall(ctx, ToolCallEvent{FunctionName: "shell", Duration: time.Second, Success: false})
	r.RecordBaselineComparison(ctx, BaselineComparisonEvent{Metric: "m", Current: 1, Baseline: 2})
}

// --- 性能层门控 ---

func TestPerfTier_DisabledForProcessLifetime(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	provider, reader := newCaptureProvider()

	// telemetry.enabled = false：核心层可用，性能层永久 no-op
	require.NoError(t, r.Initialize(provider, testConfig(false)))
	assert.True(t, r.Initialized())
	assert.False(t, r.PerformanceMonitoringEnabled())

	ctx := context.Background()
	r.RecordCPUUsage(ctx, 55)
	r.RecordStartupDuration(ctx, 800*time.Millisecond)
	r.RecordPerformanceRegression(ctx, RegressionEvent{Metric: "startup", Current: 80, Baseline: 100})

	// 核心层事件仍然发射
	r.RecordToolCall(ctx, ToolCallEvent{FunctionName: "edit", Duration: 5 * time.Millisecond, Success: true})

	rm := collect(t, reader)
	_, found := findMetric(rm, MetricCPUUsage)
	assert.False(t, found)
	_, found = findMetric(rm, MetricStartupDuration)
	assert.False(t, found)
	_, found = findMetric(rm, MetricRegressionCount)
	assert.False(t, found)

	m, found := findMetric(rm, MetricToolCallCount)
	require.True(t, found)
	assert.Equal(t, int64(1), sumValue(t, m))
}

// --- 属性合并 ---

func TestMergeAttrs_CallSpecificWins(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	// 调用方属性与公共属性键冲突时，以调用方为准
	r.toolCallLatency.Record(context.Background(), 1,
		r.mergeAttrs(AttrSessionID.String("call-specific")))

	rm := collect(t, reader)
	m, found := findMetric(rm, MetricToolCallLatency)
	require.True(t, found)

	points := histogramPoints(t, m)
	require.Len(t, points, 1)
	v, ok := points[0].Attributes.Value(AttrSessionID)
	require.True(t, ok)
	assert.Equal(t, "call-specific", v.AsString())
}

func TestMergeAttrs_CommonAlwaysPresent(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	r.RecordToolCall(context.Background(), ToolCallEvent{
		FunctionName: "grep",
		Duration:     3 * time.Millisecond,
		Success:      true,
	})

	rm := collect(t, reader)
	m, found := findMetric(rm, MetricToolCallCount)
	require.True(t, found)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	v, ok := sum.DataPoints[0].Attributes.Value(AttrSessionID)
	require.True(t, ok, "every emission carries session.id")
	assert.Equal(t, "test-session", v.AsString())
}

// --- 目录一致性 ---

func TestCatalog_UniqueNames(t *testing.T) {
	seen := make(map[string]bool, len(Catalog))
	for _, id := range Catalog {
		assert.False(t, seen[id.Name], "duplicate catalog entry: %s", id.Name)
		seen[id.Name] = true
		assert.NotEmpty(t, id.Description, "catalog entry %s lacks description", id.Name)
		assert.NotEmpty(t, id.Unit, "catalog entry %s lacks unit", id.Name)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	id, ok := Lookup(MetricToolCallLatency)
	require.True(t, ok)
	assert.Equal(t, "ms", id.Unit)
	assert.Equal(t, KindHistogram, id.Kind)
	assert.Equal(t, TierCore, id.Tier)

	_, ok = Lookup("quill.does.not.exist")
	assert.False(t, ok)
}

func TestRegistry_NilReceiverSafe(t *testing.T) {
	var r *Registry
	// nil 注册表上的记录调用也必须安全
	r.RecordToolCall(context.Background(), ToolCallEvent{FunctionName: "x"})
	r.RecordCPUUsage(context.Background(), 1)
	assert.False(t, r.ready())
}

func TestInstrumentAttributes_SeparateDataPoints(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	provider, reader := newCaptureProvider()
	require.NoError(t, r.Initialize(provider, testConfig(true)))

	ctx := context.Background()
	r.RecordTokenUsage(ctx, TokenUsageEvent{Model: "gpt-4o", Count: 100, Type: TokenInput})
	r.RecordTokenUsage(ctx, TokenUsageEvent{Model: "gpt-4o", Count: 40, Type: TokenOutput})
	r.RecordTokenUsage(ctx, TokenUsageEvent{Model: "gpt-4o", Count: 60, Type: TokenInput})

	rm := collect(t, reader)
	m, found := findMetric(rm, MetricTokenUsage)
	require.True(t, found)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	// input / output 两个属性组合各自累计
	require.Len(t, sum.DataPoints, 2)

	byType := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, ok := dp.Attributes.Value(AttrTokenType)
		require.True(t, ok)
		byType[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(160), byType["input"])
	assert.Equal(t, int64(40), byType["output"])
}
