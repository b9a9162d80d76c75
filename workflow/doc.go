// Copyright (c) FluxGraph Authors.
// Licensed under the MIT License.

/*
Package workflow 提供基于有向无环图(DAG)的智能体工作流编排能力。

# 概述

workflow 包是 FluxGraph 的核心:将若干智能体节点(Node)组织为一张
工作流图(Graph),校验依赖关系与环路,按拓扑顺序依次执行节点,并在
节点之间传递输出。单个节点失败不会中断整个执行:其下游节点被跳过,
无关分支继续执行,最终返回覆盖所有节点的完整执行报告(Report)。

# 核心接口与类型

  - Node: 工作流节点,封装一个 types.Agent、输入绑定与依赖声明
  - Binding: 输入绑定,取字面值(Literal)或上游输出(FromOutput)
  - Graph: 工作流图,提供 AddNode / Validate / Execute / DOT
  - Report / NodeResult: 一次执行中每个节点的结果(输出或错误)
  - Tracker: 进度跟踪器,维护节点状态机并提供不可变快照
  - Definition / NodeSpec: 工作流的 YAML/JSON 声明式描述
  - RunStore: 内存中的执行历史存储

# 主要能力

  - 节点管理: 唯一命名、显式依赖与输入绑定推导的隐式依赖
  - 图校验: 缺失依赖与环路检测,Execute 前自动校验
  - 确定性调度: 拓扑排序,平局按插入顺序稳定裁决
  - 失败隔离: 失败节点的传递闭包被跳过,独立分支不受影响
  - 重试与回退: 节点调用经由 call.Wrapper,支持固定间隔重试与回退
  - 可观测性: zap 结构化日志、Prometheus 指标与 OpenTelemetry 追踪

执行为单线程顺序模型:并行执行无依赖分支属于文档化的扩展方向,
当前实现不提供。
*/
package workflow
