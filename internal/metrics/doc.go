// 版权所有 2024 FluxGraph Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的工作流指标采集能力，覆盖
运行、节点与重试三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等
    Prometheus 向量指标，按工作流维度分组管理。

# 主要能力

  - 运行指标：执行总数与整体耗时，按 workflow/status 分组。
  - 节点指标：节点执行总数与单节点耗时，
    按 workflow/node/status 分组，跳过的节点计入 skipped 状态。
  - 重试指标：重试次数计数，按 workflow/node 分组，
    仅在发生重试时增加。
*/
package metrics
