// =============================================================================
// 📨 领域事件
// =============================================================================
// 每类指标对应一个强类型属性包，字段与目录中声明的属性形状一一对应。
// 可选字段以零值表示缺省，记录时按契约补默认值。
// =============================================================================
package metrics

import "time"

// ToolDecision 工具调用的用户决策
type ToolDecision string

const (
	DecisionAccept ToolDecision = "accept"
	DecisionReject ToolDecision = "reject"
	DecisionModify ToolDecision = "modify"
	DecisionAuto   ToolDecision = "auto_accept"
)

// ToolCallEvent 一次工具调用完成
type ToolCallEvent struct {
	// 工具函数名
	FunctionName string
	// 调用耗时
	Duration time.Duration
	// 是否成功
	Success bool
	// 用户决策（可选）
	Decision ToolDecision
	// 失败时的错误类别（可选）
	ErrorType string
}

// APIResponseEvent 一次模型 API 成功响应
type APIResponseEvent struct {
	// 模型名
	Model string
	// 请求耗时
	Duration time.Duration
	// HTTP 状态码
	StatusCode int
}

// APIErrorEvent 一次模型 API 失败
type APIErrorEvent struct {
	// 模型名
	Model string
	// 请求耗时
	Duration time.Duration
	// 状态码（可选，缺省记为 "error"）
	StatusCode string
	// 错误类别（可选，缺省记为 "unknown"）
	ErrorType string
}

// TokenType Token 消耗类型
type TokenType string

const (
	TokenInput   TokenType = "input"
	TokenOutput  TokenType = "output"
	TokenThought TokenType = "thought"
	TokenCache   TokenType = "cache"
	TokenTool    TokenType = "tool"
)

// TokenUsageEvent 一批 Token 消耗
type TokenUsageEvent struct {
	// 模型名
	Model string
	// Token 数量
	Count int64
	// 消耗类型
	Type TokenType
}

// MemoryComponent 内存统计口径
type MemoryComponent string

const (
	MemoryHeap MemoryComponent = "heap"
	// MemorySys 是 Go 运行时向操作系统申请的虚拟内存总量
	// (runtime.MemStats.Sys)，不是常驻内存
	MemorySys MemoryComponent = "sys"
)

// MemoryUsageEvent 一次内存用量采样
type MemoryUsageEvent struct {
	Component MemoryComponent
	Bytes     int64
}

// APIPhase 模型 API 请求阶段
type APIPhase string

const (
	PhaseConnect   APIPhase = "connect"
	PhaseFirstByte APIPhase = "first_byte"
	PhaseStreaming APIPhase = "streaming"
	PhaseTotal     APIPhase = "total"
)

// APIBreakdownEvent 模型 API 请求按阶段拆分的耗时
type APIBreakdownEvent struct {
	Model    string
	Phase    APIPhase
	Duration time.Duration
}

// TokenEfficiencyEvent Token 吞吐率采样
type TokenEfficiencyEvent struct {
	Model           string
	TokensPerSecond float64
}

// RegressionEvent 一次性能回归检测结果
type RegressionEvent struct {
	// 被测指标名（目录中的线上名称或自定义探针名）
	Metric string
	// 当前值
	Current float64
	// 基线值
	Baseline float64
	// 严重程度（可选: minor/major/critical）
	Severity string
}

// BaselineComparisonEvent 当前值与存储基线的对比
type BaselineComparisonEvent struct {
	// 被测指标名
	Metric string
	// 当前值
	Current float64
	// 基线值
	Baseline float64
}
