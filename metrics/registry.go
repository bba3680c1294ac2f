// =============================================================================
// 🗃️ 仪表注册表
// =============================================================================
// 进程级仪表注册表：每个仪表按目录身份惰性创建恰好一次。
// 生命周期: Uninitialized → Initializing → Initialized，无反向转换、
// 无销毁 API。性能层由遥测开关独立门控，仅在 Initialize 期间设置一次。
// =============================================================================
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/quill-ai/quill/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// 生命周期状态
const (
	stateUninitialized int32 = iota
	stateInitializing
	stateInitialized
)

// Registry 持有全部仪表句柄与发射门控状态。
// 由宿主在启动序列中创建并初始化，再以引用传递给各记录调用点。
type Registry struct {
	logger *zap.Logger

	state       atomic.Int32
	perfEnabled atomic.Bool

	// 公共属性（session.id），合并进每次发射
	common []attribute.KeyValue

	// 核心层仪表
	sessionCount      metric.Int64Counter
	toolCallCount     metric.Int64Counter
	toolCallLatency   metric.Float64Histogram
	apiRequestCount   metric.Int64Counter
	apiRequestLatency metric.Float64Histogram
	tokenUsage        metric.Int64Counter

	// 性能监控层仪表
	startupDuration    metric.Float64Histogram
	memoryUsage        metric.Int64Histogram
	cpuUsage           metric.Float64Histogram
	toolQueueDepth     metric.Int64Histogram
	tokenEfficiency    metric.Float64Histogram
	apiBreakdown       metric.Float64Histogram
	performanceScore   metric.Float64Histogram
	regressionCount    metric.Int64Counter
	regressionPercent  metric.Float64Histogram
	baselineComparison metric.Float64Histogram
}

// NewRegistry 创建未初始化的注册表。
// 初始化之前所有 Record* 调用都是静默 no-op。
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// Initialize 幂等地创建全部仪表并记录一次会话启动。
//
// provider 为 nil（遥测整体禁用）时，仪表句柄保持未设置，
// 所有记录调用成为 no-op；此情形不视为错误。
// 性能监控层仅在 cfg.Telemetry.Enabled 为 true 时激活。
// 重复调用立即返回，不会重复创建仪表或重复计数会话。
func (r *Registry) Initialize(provider metric.MeterProvider, cfg *config.Config) error {
	if !r.state.CompareAndSwap(stateUninitialized, stateInitializing) {
		// 已初始化或正在初始化
		return nil
	}
	// 状态只进不退
	defer r.state.Store(stateInitialized)

	r.common = []attribute.KeyValue{
		AttrSessionID.String(cfg.Session.ID),
	}

	if provider == nil {
		r.logger.Debug("no meter provider, metrics recording disabled")
		return nil
	}

	meter := provider.Meter(instrumentationName)
	if meter == nil {
		r.logger.Debug("meter unavailable, metrics recording disabled")
		return nil
	}

	var errs []error
	r.createCoreInstruments(meter, &errs)

	if cfg.Telemetry.Enabled {
		r.createPerfInstruments(meter, &errs)
		r.perfEnabled.Store(true)
	}

	// 会话启动计数是初始化的副作用，只发生在首次成功初始化时
	if r.sessionCount != nil {
		r.sessionCount.Add(context.Background(), 1, metric.WithAttributes(r.common...))
	}

	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("some instruments failed to initialize", zap.Error(err))
		return fmt.Errorf("initialize instruments: %w", err)
	}

	r.logger.Debug("metrics registry initialized",
		zap.Bool("perf_enabled", r.perfEnabled.Load()))
	return nil
}

// Initialized 返回注册表是否已完成初始化
func (r *Registry) Initialized() bool {
	return r.state.Load() == stateInitialized
}

// PerformanceMonitoringEnabled 返回性能监控层是否已激活
func (r *Registry) PerformanceMonitoringEnabled() bool {
	return r.perfEnabled.Load()
}

// =============================================================================
// 🏭 仪表创建（目录驱动）
// =============================================================================

func (r *Registry) createCoreInstruments(meter metric.Meter, errs *[]error) {
	r.sessionCount = int64Counter(meter, MetricSessionCount, errs)
	r.toolCallCount = int64Counter(meter, MetricToolCallCount, errs)
	r.toolCallLatency = float64Histogram(meter, MetricToolCallLatency, errs)
	r.apiRequestCount = int64Counter(meter, MetricAPIRequestCount, errs)
	r.apiRequestLatency = float64Histogram(meter, MetricAPIRequestLatency, errs)
	r.tokenUsage = int64Counter(meter, MetricTokenUsage, errs)
}

func (r *Registry) createPerfInstruments(meter metric.Meter, errs *[]error) {
	r.startupDuration = float64Histogram(meter, MetricStartupDuration, errs)
	r.memoryUsage = int64Histogram(meter, MetricMemoryUsage, errs)
	r.cpuUsage = float64Histogram(meter, MetricCPUUsage, errs)
	r.toolQueueDepth = int64Histogram(meter, MetricToolQueueDepth, errs)
	r.tokenEfficiency = float64Histogram(meter, MetricTokenEfficiency, errs)
	r.apiBreakdown = float64Histogram(meter, MetricAPIBreakdown, errs)
	r.performanceScore = float64Histogram(meter, MetricPerformanceScore, errs)
	r.regressionCount = int64Counter(meter, MetricRegressionCount, errs)
	r.regressionPercent = float64Histogram(meter, MetricRegressionPercent, errs)
	r.baselineComparison = float64Histogram(meter, MetricBaselineComparison, errs)
}

// int64Counter 按目录身份创建计数器，失败时句柄留空并收集错误
func int64Counter(meter metric.Meter, name string, errs *[]error) metric.Int64Counter {
	id, ok := Lookup(name)
	if !ok {
		*errs = append(*errs, fmt.Errorf("metric %q not in catalog", name))
		return nil
	}
	c, err := meter.Int64Counter(id.Name,
		metric.WithDescription(id.Description),
		metric.WithUnit(id.Unit))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("create counter %q: %w", name, err))
		return nil
	}
	return c
}

// float64Histogram 按目录身份创建浮点直方图
func float64Histogram(meter metric.Meter, name string, errs *[]error) metric.Float64Histogram {
	id, ok := Lookup(name)
	if !ok {
		*errs = append(*errs, fmt.Errorf("metric %q not in catalog", name))
		return nil
	}
	h, err := meter.Float64Histogram(id.Name,
		metric.WithDescription(id.Description),
		metric.WithUnit(id.Unit))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("create histogram %q: %w", name, err))
		return nil
	}
	return h
}

// int64Histogram 按目录身份创建整型直方图
func int64Histogram(meter metric.Meter, name string, errs *[]error) metric.Int64Histogram {
	id, ok := Lookup(name)
	if !ok {
		*errs = append(*errs, fmt.Errorf("metric %q not in catalog", name))
		return nil
	}
	h, err := meter.Int64Histogram(id.Name,
		metric.WithDescription(id.Description),
		metric.WithUnit(id.Unit))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("create histogram %q: %w", name, err))
		return nil
	}
	return h
}

// =============================================================================
// 🚪 发射门控
// =============================================================================

// ready 每次记录调用都重新检查，不缓存结果
func (r *Registry) ready() bool {
	return r != nil && r.state.Load() == stateInitialized
}

// perfReady 性能层门控：初始化完成且性能层已激活
func (r *Registry) perfReady() bool {
	return r.ready() && r.perfEnabled.Load()
}

// mergeAttrs 公共属性在前、调用方属性在后。
// otel 属性集对重复键保留最后出现的值，因此调用方属性优先。
func (r *Registry) mergeAttrs(callAttrs ...attribute.KeyValue) metric.MeasurementOption {
	merged := make([]attribute.KeyValue, 0, len(r.common)+len(callAttrs))
	merged = append(merged, r.common...)
	merged = append(merged, callAttrs...)
	return metric.WithAttributes(merged...)
}
