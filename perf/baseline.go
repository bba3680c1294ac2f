package perf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================================
// 📐 性能基线存储
// ============================================================

// Baseline 单个指标的基线记录
type Baseline struct {
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store 将各指标的基线值持久化到本地 JSON 文件。
// 所有方法并发安全；Save 通过临时文件加重命名保证原子写入。
type Store struct {
	path   string
	logger *zap.Logger

	mu        sync.Mutex
	baselines map[string]Baseline
}

// NewStore 创建基线存储，path 为 JSON 文件路径
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:      path,
		logger:    logger.With(zap.String("component", "perf_baseline")),
		baselines: make(map[string]Baseline),
	}
}

// Load 从磁盘读取基线文件；文件不存在时保持空集合，不算错误
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("基线文件不存在，使用空基线", zap.String("path", s.path))
			return nil
		}
		return fmt.Errorf("读取基线文件失败: %w", err)
	}

	baselines := make(map[string]Baseline)
	if err := json.Unmarshal(data, &baselines); err != nil {
		return fmt.Errorf("解析基线文件失败: %w", err)
	}

	s.baselines = baselines
	s.logger.Debug("基线加载完成", zap.Int("count", len(baselines)))
	return nil
}

// Save 将当前基线集合原子写入磁盘
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.baselines, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化基线失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建基线目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".baseline-*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入基线失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换基线文件失败: %w", err)
	}
	return nil
}

// Set 更新指定指标的基线值
func (s *Store) Set(metric string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[metric] = Baseline{Value: value, RecordedAt: time.Now()}
}

// Get 查询指定指标的基线
func (s *Store) Get(metric string) (Baseline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baselines[metric]
	return b, ok
}

// Len 返回已记录基线的指标数量
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.baselines)
}

// Metrics 返回已记录基线的全部指标名，顺序不保证
func (s *Store) Metrics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.baselines))
	for name := range s.baselines {
		names = append(names, name)
	}
	return names
}
