// =============================================================================
// 🔍 probe 命令
// =============================================================================
// 运行一轮性能探针：测量启动耗时、内存用量与分词吞吐，与存储基线
// 对比并发射指标，最后回写基线文件。
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quill-ai/quill"
	"github.com/quill-ai/quill/config"
	"github.com/quill-ai/quill/metrics"
	"github.com/quill-ai/quill/perf"
	"github.com/quill-ai/quill/tokenizer"
)

func runProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	update := fs.Bool("update", false, "Overwrite baselines with this round's measurements")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx := context.Background()

	// 启动耗时从会话装配开始计
	wireStart := time.Now()
	s, err := quill.Start(ctx, quill.WithConfig(cfg), quill.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to start session", zap.Error(err))
	}
	defer s.Shutdown(ctx)

	// 启动耗时测量一次，发射与基线对比共用同一个值
	startupDur := time.Since(wireStart)
	startupMS := millis(startupDur)

	store := perf.NewStore(baselinePath(cfg), logger)
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load baselines", zap.Error(err))
	}
	monitor := perf.NewMonitor(store, s.Registry, cfg.Perf, logger)
	sampler := perf.NewSampler(s.Registry, cfg.Perf.SampleInterval, logger)

	// 1. 启动耗时
	s.Registry.RecordStartupDuration(ctx, startupDur)
	startupRegressed := monitor.Check(ctx, metrics.MetricStartupDuration, startupMS)

	// 2. 内存用量
	sampler.SampleOnce(ctx)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heapMB := float64(ms.HeapAlloc) / (1 << 20)
	memRegressed := monitor.Check(ctx, metrics.MetricMemoryUsage, heapMB)

	// 3. 分词吞吐（越高越好，只发射不做回归判定）
	tokensPerSec := tokenizeProbe(cfg)
	s.Registry.RecordTokenEfficiency(ctx, metrics.TokenEfficiencyEvent{
		Model:           cfg.Session.Model,
		TokensPerSecond: tokensPerSec,
	})

	if *update {
		store.Set(metrics.MetricStartupDuration, startupMS)
		store.Set(metrics.MetricMemoryUsage, heapMB)
	}
	if err := store.Save(); err != nil {
		logger.Fatal("Failed to save baselines", zap.Error(err))
	}

	fmt.Printf("Probe results (session %s):\n", cfg.Session.ID)
	printProbe("startup", fmt.Sprintf("%.2f ms", startupMS), startupRegressed)
	printProbe("heap", fmt.Sprintf("%.2f MB", heapMB), memRegressed)
	printProbe("tokenizer", fmt.Sprintf("%.0f tokens/s", tokensPerSec), false)
}

// millis 换算为毫秒，与延迟直方图的记录单位一致
func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// tokenizeProbe 对固定文本计数并测量吞吐
func tokenizeProbe(cfg *config.Config) float64 {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	tk := tokenizer.ForModelOrEstimator(cfg.Session.Model)

	start := time.Now()
	count, err := tk.CountTokens(text)
	if err != nil {
		return 0
	}
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return float64(count) / elapsed.Seconds()
}

func printProbe(name, value string, regressed bool) {
	status := "ok"
	if regressed {
		status = "REGRESSED"
	}
	fmt.Printf("  %-10s %-16s %s\n", name, value, status)
}

// baselinePath 返回基线文件路径，配置缺省时落到用户主目录下
func baselinePath(cfg *config.Config) string {
	if cfg.Perf.BaselinePath != "" {
		return cfg.Perf.BaselinePath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".quill", "baselines.json")
	}
	return filepath.Join(home, ".quill", "baselines.json")
}
