package perf

import (
	"context"
	"runtime"
	runtimemetrics "runtime/metrics"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quill-ai/quill/metrics"
)

// ============================================================
// 📊 进程内存/CPU 采样器
// ============================================================

// runtime/metrics 的 CPU 时间口径，用于两次采样间的占用率推算
const (
	cpuIdleMetric  = "/cpu/classes/idle:cpu-seconds"
	cpuTotalMetric = "/cpu/classes/total:cpu-seconds"
)

// Sampler 周期读取 runtime 内存与 CPU 统计并发射性能指标。
// Start 后台运行采样循环，Stop 等待循环退出；重复 Start/Stop 安全。
type Sampler struct {
	registry *metrics.Registry
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	// 上一次 CPU 采样值，首次采样只建立基点不发射
	havePrev  bool
	prevIdle  float64
	prevTotal float64
}

// NewSampler 创建采样器，interval 取自 Perf 配置
func NewSampler(registry *metrics.Registry, interval time.Duration, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sampler{
		registry: registry,
		interval: interval,
		logger:   logger.With(zap.String("component", "perf_sampler")),
		started:  time.Now(),
	}
}

// RecordStartup 发射自采样器创建以来的启动耗时
func (s *Sampler) RecordStartup(ctx context.Context) {
	s.registry.RecordStartupDuration(ctx, time.Since(s.started))
}

// Start 启动后台采样循环；已在运行时为空操作
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.logger.Debug("采样循环启动", zap.Duration("interval", s.interval))
}

// Stop 停止采样循环并等待退出；未启动时为空操作
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sampler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SampleOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SampleOnce(ctx)
		}
	}
}

// SampleOnce 立即采样一次内存与 CPU 用量并发射指标。
// CPU 占用率由两次采样间的 CPU 时间差推算，首次调用只建立基点。
func (s *Sampler) SampleOnce(ctx context.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s.registry.RecordMemoryUsage(ctx, metrics.MemoryUsageEvent{
		Component: metrics.MemoryHeap,
		Bytes:     int64(ms.HeapAlloc),
	})
	s.registry.RecordMemoryUsage(ctx, metrics.MemoryUsageEvent{
		Component: metrics.MemorySys,
		Bytes:     int64(ms.Sys),
	})

	if pct, ok := s.cpuPercent(); ok {
		s.registry.RecordCPUUsage(ctx, pct)
	}
}

// cpuPercent 返回自上次采样以来的进程 CPU 占用率（0-100）
func (s *Sampler) cpuPercent() (float64, bool) {
	samples := []runtimemetrics.Sample{
		{Name: cpuIdleMetric},
		{Name: cpuTotalMetric},
	}
	runtimemetrics.Read(samples)
	if samples[0].Value.Kind() != runtimemetrics.KindFloat64 ||
		samples[1].Value.Kind() != runtimemetrics.KindFloat64 {
		return 0, false
	}
	idle := samples[0].Value.Float64()
	total := samples[1].Value.Float64()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.havePrev {
		s.havePrev, s.prevIdle, s.prevTotal = true, idle, total
		return 0, false
	}

	dIdle := idle - s.prevIdle
	dTotal := total - s.prevTotal
	s.prevIdle, s.prevTotal = idle, total

	if dTotal <= 0 {
		return 0, false
	}
	pct := (dTotal - dIdle) / dTotal * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
