// Package tokenizer 提供统一的 Token 计数接口，
// 支持 tiktoken 精确计数与 CJK 估算器，用于 Quill 会话的 Token 用量核算。
package tokenizer
