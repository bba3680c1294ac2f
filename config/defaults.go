// =============================================================================
// 📦 Quill 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Session:   DefaultSessionConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Perf:      DefaultPerfConfig(),
		Tokenizer: DefaultTokenizerConfig(),
	}
}

// DefaultSessionConfig 返回默认会话配置
// Session.ID 留空，由 Loader.Load 生成
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Model: "gpt-4o-mini",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "quill",
		SampleRate:   1.0,
	}
}

// DefaultPerfConfig 返回默认性能监控配置
func DefaultPerfConfig() PerfConfig {
	return PerfConfig{
		BaselinePath:        "",
		SampleInterval:      30 * time.Second,
		RegressionThreshold: 10,
	}
}

// DefaultTokenizerConfig 返回默认分词器配置
func DefaultTokenizerConfig() TokenizerConfig {
	return TokenizerConfig{
		CharsPerToken: 4.0,
	}
}
