/*
包 metrics 提供 Quill CLI 的指标发射核心，涵盖指标目录、仪表注册表、
发射门控与类型化记录 API 四个部分。

# 概述

本包基于 OpenTelemetry 标准，将领域事件（工具调用完成、API 响应返回、
Token 消耗、性能回归检测）转换为计数器与直方图更新。宿主进程在启动时
调用一次 Initialize（幂等），此后各调用点通过类型化的 Record* 函数发射
指标；每次调用都会重新检查门控条件，未初始化或未启用时静默丢弃。

典型使用场景：

  - 按工具名统计调用次数、成功率与延迟分布。
  - 按模型统计 API 请求量、错误率与延迟分布。
  - 按类型（input/output/thought/cache/tool）累计 Token 消耗。
  - 性能监控层：启动耗时、内存/CPU 用量、基线对比与回归检测。

# 核心接口

  - Identity / Catalog：指标身份的唯一数据源，固定线上名称、单位与
    数值类型，属性键为稳定字符串常量。
  - Registry：进程级仪表注册表，持有全部计数器/直方图句柄，
    Initialize 幂等创建，性能层由遥测开关独立门控。
  - ToolCallEvent 等事件结构：每类指标对应一个强类型属性包，
    公共属性（session.id）在发射时合并，调用方属性优先。

# 发射门控

记录函数永不返回错误、永不 panic：句柄未创建 → 静默返回；
所属层未启用 → 静默返回；基线为零的比值计算 → 跳过并记录诊断日志。
可观测性故障绝不影响宿主功能。
*/
package metrics
