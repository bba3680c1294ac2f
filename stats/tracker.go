// =============================================================================
// 📒 会话用量追踪器
// =============================================================================
// 单一调用点同时服务两个消费方：本地聚合（展示层读取快照）与
// metrics 注册表（发射到可观测性后端）。聚合在进程内完成，
// 不做任何 I/O；转发遵循注册表自身的门控语义。
// =============================================================================
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/quill-ai/quill/metrics"
	"github.com/quill-ai/quill/tokenizer"
)

// TokenCounts 一次 API 交互的 Token 分解
type TokenCounts struct {
	Input   int64
	Output  int64
	Thought int64
	Cached  int64
	Tool    int64
}

// Total 全部 Token 之和
func (c TokenCounts) Total() int64 {
	return c.Input + c.Output + c.Thought + c.Cached + c.Tool
}

// ModelUsage 单个模型的累计用量
type ModelUsage struct {
	Requests     int
	Errors       int
	Tokens       TokenCounts
	TotalLatency time.Duration
}

// ToolUsage 单个工具的累计用量
type ToolUsage struct {
	Calls         int
	Failures      int
	TotalDuration time.Duration
}

// Summary 会话用量快照，供展示层消费
type Summary struct {
	StartedAt time.Time
	Models    map[string]ModelUsage
	Tools     map[string]ToolUsage
}

// TotalTokens 快照内全部模型的 Token 之和
func (s Summary) TotalTokens() int64 {
	var total int64
	for _, m := range s.Models {
		total += m.Tokens.Total()
	}
	return total
}

// SessionTracker 会话用量追踪器
type SessionTracker struct {
	registry *metrics.Registry

	// 估算器的非 CJK 字符/Token 比例，<=0 时用估算器默认值
	charsPerToken float64

	mu        sync.Mutex
	startedAt time.Time
	models    map[string]*ModelUsage
	tools     map[string]*ToolUsage
}

// TrackerOption 配置 SessionTracker
type TrackerOption func(*SessionTracker)

// WithCharsPerToken 设置估算器的非 CJK 字符/Token 比例
func WithCharsPerToken(ratio float64) TrackerOption {
	return func(s *SessionTracker) { s.charsPerToken = ratio }
}

// NewSessionTracker 创建会话用量追踪器。
// registry 可为未初始化状态，转发调用会被其门控丢弃。
func NewSessionTracker(registry *metrics.Registry, opts ...TrackerOption) *SessionTracker {
	s := &SessionTracker{
		registry:  registry,
		startedAt: time.Now(),
		models:    make(map[string]*ModelUsage),
		tools:     make(map[string]*ToolUsage),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrackToolCall 记录一次工具调用：本地聚合并转发
func (s *SessionTracker) TrackToolCall(ctx context.Context, ev metrics.ToolCallEvent) {
	s.mu.Lock()
	u, ok := s.tools[ev.FunctionName]
	if !ok {
		u = &ToolUsage{}
		s.tools[ev.FunctionName] = u
	}
	u.Calls++
	if !ev.Success {
		u.Failures++
	}
	u.TotalDuration += ev.Duration
	s.mu.Unlock()

	s.registry.RecordToolCall(ctx, ev)
}

// TrackAPIResponse 记录一次成功的模型 API 响应及其 Token 分解
func (s *SessionTracker) TrackAPIResponse(ctx context.Context, ev metrics.APIResponseEvent, tokens TokenCounts) {
	s.mu.Lock()
	u := s.modelUsage(ev.Model)
	u.Requests++
	u.TotalLatency += ev.Duration
	u.Tokens.Input += tokens.Input
	u.Tokens.Output += tokens.Output
	u.Tokens.Thought += tokens.Thought
	u.Tokens.Cached += tokens.Cached
	u.Tokens.Tool += tokens.Tool
	s.mu.Unlock()

	s.registry.RecordAPIResponse(ctx, ev)
	s.forwardTokens(ctx, ev.Model, tokens)
}

// TrackAPIError 记录一次失败的模型 API 请求
func (s *SessionTracker) TrackAPIError(ctx context.Context, ev metrics.APIErrorEvent) {
	s.mu.Lock()
	u := s.modelUsage(ev.Model)
	u.Requests++
	u.Errors++
	u.TotalLatency += ev.Duration
	s.mu.Unlock()

	s.registry.RecordAPIError(ctx, ev)
}

// EstimateTokens 在响应未携带用量时用分词器估算 Token 分解。
// 优先使用模型注册的精确分词器，否则落到 CJK 估算器，
// 估算器采用配置的字符/Token 比例。
func (s *SessionTracker) EstimateTokens(model, prompt, completion string) TokenCounts {
	tok, err := tokenizer.ForModel(model)
	if err != nil {
		tok = tokenizer.NewEstimator(model, 0).WithCharsPerToken(s.charsPerToken)
	}

	var counts TokenCounts
	if n, err := tok.CountTokens(prompt); err == nil {
		counts.Input = int64(n)
	}
	if n, err := tok.CountTokens(completion); err == nil {
		counts.Output = int64(n)
	}
	return counts
}

// Snapshot 返回当前用量的一致快照
func (s *SessionTracker) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Summary{
		StartedAt: s.startedAt,
		Models:    make(map[string]ModelUsage, len(s.models)),
		Tools:     make(map[string]ToolUsage, len(s.tools)),
	}
	for name, u := range s.models {
		out.Models[name] = *u
	}
	for name, u := range s.tools {
		out.Tools[name] = *u
	}
	return out
}

// modelUsage 返回模型聚合项，调用方必须持有 s.mu
func (s *SessionTracker) modelUsage(model string) *ModelUsage {
	u, ok := s.models[model]
	if !ok {
		u = &ModelUsage{}
		s.models[model] = u
	}
	return u
}

// forwardTokens 将非零 Token 分量逐类转发给注册表
func (s *SessionTracker) forwardTokens(ctx context.Context, model string, tokens TokenCounts) {
	forward := func(count int64, typ metrics.TokenType) {
		if count > 0 {
			s.registry.RecordTokenUsage(ctx, metrics.TokenUsageEvent{
				Model: model,
				Count: count,
				Type:  typ,
			})
		}
	}
	forward(tokens.Input, metrics.TokenInput)
	forward(tokens.Output, metrics.TokenOutput)
	forward(tokens.Thought, metrics.TokenThought)
	forward(tokens.Cached, metrics.TokenCache)
	forward(tokens.Tool, metrics.TokenTool)
}
