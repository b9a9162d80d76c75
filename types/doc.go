// Copyright (c) FluxGraph Authors.
// Licensed under the MIT License.

/*
Package types 提供 FluxGraph 框架的全局共享类型定义。

# 概述

types 是框架最底层的公共包，不依赖任何内部包，为 agent、workflow、call、
tools 等上层模块提供统一的类型契约。所有跨包共享的接口与错误码均定义
于此，以避免循环依赖。

# 核心接口与类型

  - Agent             — 最小执行单元接口 Execute(ctx, inputs) (outputs, error)
  - Named             — 可选的显示名称接口
  - Error / ErrorCode — 结构化错误体系，含 Retryable 标记与 Cause 链

# 主要能力

  - 错误工具链：GetErrorCode / IsCode / IsRetryable / AsError
  - 错误构造：NewError + WithCause / WithNode / WithRetryable 链式方法
*/
package types
