// Package stats 提供会话级用量统计：按模型累计 Token 与延迟、
// 按工具累计调用结果，供终端状态栏等展示层读取快照，
// 同时把每个事件转发给 metrics 注册表发射到后端。
package stats
