// Package perf 提供性能基线管理与回归检测：基线持久化在本地 JSON
// 文件中，Monitor 将当前测量值与基线对比并通过 metrics 注册表发射
// 对比与回归指标，Sampler 周期采样进程内存用量。
package perf
