// =============================================================================
// 🎯 核心层记录 API
// =============================================================================
// 每类领域事件一个记录函数。配对的计数+延迟指标在同一次调用中完成：
// 计数器携带完整属性（成功/错误细节），延迟直方图只带对耗时分布
// 有意义的缩减属性集，避免基数膨胀。
// 记录函数永不返回错误，门控不通过时静默返回。
// =============================================================================
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// durationMillis 统一耗时单位为毫秒（目录中延迟直方图的单位）
func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// RecordToolCall 记录一次工具调用完成：计数 +1，耗时入延迟分布
func (r *Registry) RecordToolCall(ctx context.Context, ev ToolCallEvent) {
	if !r.ready() {
		return
	}

	if r.toolCallCount != nil {
		attrs := []attribute.KeyValue{
			AttrFunctionName.String(ev.FunctionName),
			AttrSuccess.Bool(ev.Success),
		}
		if ev.Decision != "" {
			attrs = append(attrs, AttrDecision.String(string(ev.Decision)))
		}
		if ev.ErrorType != "" {
			attrs = append(attrs, AttrErrorType.String(ev.ErrorType))
		}
		r.toolCallCount.Add(ctx, 1, r.mergeAttrs(attrs...))
	}

	if r.toolCallLatency != nil {
		// 延迟分布只按工具名拆分
		r.toolCallLatency.Record(ctx, durationMillis(ev.Duration),
			r.mergeAttrs(AttrFunctionName.String(ev.FunctionName)))
	}
}

// RecordAPIResponse 记录一次模型 API 成功响应
func (r *Registry) RecordAPIResponse(ctx context.Context, ev APIResponseEvent) {
	if !r.ready() {
		return
	}

	if r.apiRequestCount != nil {
		r.apiRequestCount.Add(ctx, 1, r.mergeAttrs(
			AttrModel.String(ev.Model),
			AttrStatusCode.Int(ev.StatusCode),
		))
	}

	if r.apiRequestLatency != nil {
		// 延迟分布只按模型拆分
		r.apiRequestLatency.Record(ctx, durationMillis(ev.Duration),
			r.mergeAttrs(AttrModel.String(ev.Model)))
	}
}

// RecordAPIError 记录一次模型 API 失败。
// status_code 缺省记为 "error"，error_type 缺省记为 "unknown"。
func (r *Registry) RecordAPIError(ctx context.Context, ev APIErrorEvent) {
	if !r.ready() {
		return
	}

	statusCode := ev.StatusCode
	if statusCode == "" {
		statusCode = "error"
	}
	errorType := ev.ErrorType
	if errorType == "" {
		errorType = "unknown"
	}

	if r.apiRequestCount != nil {
		r.apiRequestCount.Add(ctx, 1, r.mergeAttrs(
			AttrModel.String(ev.Model),
			AttrStatusCode.String(statusCode),
			AttrErrorType.String(errorType),
		))
	}

	if r.apiRequestLatency != nil {
		r.apiRequestLatency.Record(ctx, durationMillis(ev.Duration),
			r.mergeAttrs(AttrModel.String(ev.Model)))
	}
}

// RecordTokenUsage 记录一批 Token 消耗
func (r *Registry) RecordTokenUsage(ctx context.Context, ev TokenUsageEvent) {
	if !r.ready() || r.tokenUsage == nil {
		return
	}
	if ev.Count <= 0 {
		return
	}
	r.tokenUsage.Add(ctx, ev.Count, r.mergeAttrs(
		AttrModel.String(ev.Model),
		AttrTokenType.String(string(ev.Type)),
	))
}
