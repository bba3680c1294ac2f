// Package config 提供 Quill 的配置管理功能。
//
// 包含配置加载与默认值管理。支持从 YAML 文件和环境变量加载配置，
// 覆盖优先级为 默认值 → 文件 → 环境变量。
// 会话 ID 在加载阶段自动生成（未显式指定时）。
package config
