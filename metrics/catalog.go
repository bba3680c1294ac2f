// =============================================================================
// 📊 指标目录
// =============================================================================
// 指标身份的唯一数据源：线上名称、描述、单位、数值类型与所属层。
// 线上名称是对外发布的契约，重命名会破坏后端看板与告警，
// 因此全部以常量固定，禁止动态拼接。
// =============================================================================
package metrics

import "go.opentelemetry.io/otel/attribute"

// instrumentationName 是本包创建 Meter 时使用的 scope 名称
const instrumentationName = "github.com/quill-ai/quill/metrics"

// =============================================================================
// 🏷️ 指标线上名称（发布契约）
// =============================================================================

const (
	MetricSessionCount      = "quill.session.count"
	MetricToolCallCount     = "quill.tool.call.count"
	MetricToolCallLatency   = "quill.tool.call.latency"
	MetricAPIRequestCount   = "quill.api.request.count"
	MetricAPIRequestLatency = "quill.api.request.latency"
	MetricTokenUsage        = "quill.token.usage"

	MetricStartupDuration    = "quill.perf.startup.duration"
	MetricMemoryUsage        = "quill.perf.memory.usage"
	MetricCPUUsage           = "quill.perf.cpu.usage"
	MetricToolQueueDepth     = "quill.perf.tool.queue.depth"
	MetricTokenEfficiency    = "quill.perf.token.efficiency"
	MetricAPIBreakdown       = "quill.perf.api.request.breakdown"
	MetricPerformanceScore   = "quill.perf.score"
	MetricRegressionCount    = "quill.perf.regression.count"
	MetricRegressionPercent  = "quill.perf.regression.percentage_change"
	MetricBaselineComparison = "quill.perf.baseline.comparison"
)

// =============================================================================
// 🔑 属性键（稳定字符串，跨进程运行保持一致）
// =============================================================================

const (
	AttrSessionID    = attribute.Key("session.id")
	AttrFunctionName = attribute.Key("function_name")
	AttrSuccess      = attribute.Key("success")
	AttrDecision     = attribute.Key("decision")
	AttrModel        = attribute.Key("model")
	AttrStatusCode   = attribute.Key("status_code")
	AttrErrorType    = attribute.Key("error_type")
	AttrTokenType    = attribute.Key("type")
	AttrPhase        = attribute.Key("phase")
	AttrComponent    = attribute.Key("component")
	AttrMetric       = attribute.Key("metric")
	AttrSeverity     = attribute.Key("severity")
	AttrCategory     = attribute.Key("category")
)

// =============================================================================
// 🧾 指标身份
// =============================================================================

// Kind 仪表类型
type Kind int

const (
	// KindCounter 单调递增计数器
	KindCounter Kind = iota
	// KindHistogram 分布直方图
	KindHistogram
)

// ValueType 测量值类型
type ValueType int

const (
	// ValueInt64 整型测量值
	ValueInt64 ValueType = iota
	// ValueFloat64 浮点测量值
	ValueFloat64
)

// Tier 指标所属层
type Tier int

const (
	// TierCore 核心层，Initialize 成功后即可用
	TierCore Tier = iota
	// TierPerf 性能监控层，仅在遥测开关开启时创建
	TierPerf
)

// Identity 描述一个指标的不可变身份，进程启动时确定
type Identity struct {
	Name        string
	Description string
	Unit        string
	Kind        Kind
	ValueType   ValueType
	Tier        Tier
}

// Catalog 是全部指标身份的静态表。
// 记录 API 触达的每个仪表在此有且仅有一条目录项。
var Catalog = []Identity{
	{MetricSessionCount, "Count of CLI sessions started", "{session}", KindCounter, ValueInt64, TierCore},
	{MetricToolCallCount, "Count of tool calls", "{call}", KindCounter, ValueInt64, TierCore},
	{MetricToolCallLatency, "Tool call latency", "ms", KindHistogram, ValueFloat64, TierCore},
	{MetricAPIRequestCount, "Count of model API requests", "{request}", KindCounter, ValueInt64, TierCore},
	{MetricAPIRequestLatency, "Model API request latency", "ms", KindHistogram, ValueFloat64, TierCore},
	{MetricTokenUsage, "Count of tokens consumed", "{token}", KindCounter, ValueInt64, TierCore},

	{MetricStartupDuration, "CLI startup duration", "ms", KindHistogram, ValueFloat64, TierPerf},
	{MetricMemoryUsage, "Process memory usage", "By", KindHistogram, ValueInt64, TierPerf},
	{MetricCPUUsage, "Process CPU usage", "percent", KindHistogram, ValueFloat64, TierPerf},
	{MetricToolQueueDepth, "Pending tool call queue depth", "{call}", KindHistogram, ValueInt64, TierPerf},
	{MetricTokenEfficiency, "Token throughput", "{token}/s", KindHistogram, ValueFloat64, TierPerf},
	{MetricAPIBreakdown, "Model API request phase duration", "ms", KindHistogram, ValueFloat64, TierPerf},
	{MetricPerformanceScore, "Composite performance score", "percent", KindHistogram, ValueFloat64, TierPerf},
	{MetricRegressionCount, "Count of detected performance regressions", "{regression}", KindCounter, ValueInt64, TierPerf},
	{MetricRegressionPercent, "Performance change against baseline", "percent", KindHistogram, ValueFloat64, TierPerf},
	{MetricBaselineComparison, "Current value compared to stored baseline", "percent", KindHistogram, ValueFloat64, TierPerf},
}

// Lookup 按线上名称查找目录项
func Lookup(name string) (Identity, bool) {
	for _, id := range Catalog {
		if id.Name == name {
			return id, true
		}
	}
	return Identity{}, false
}
