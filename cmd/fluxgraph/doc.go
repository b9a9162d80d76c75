// Copyright (c) FluxGraph Authors.
// Licensed under the MIT License.

/*
Package main 提供 FluxGraph 命令行程序入口。

# 概述

cmd/fluxgraph 是 FluxGraph 工作流引擎的可执行入口，围绕 YAML/JSON
工作流定义提供执行、校验、可视化与常驻服务等子命令。程序支持 YAML
配置文件加载、结构化日志（zap）、Prometheus 指标采集与 OpenTelemetry
遥测初始化。

# 核心类型

  - Server           — serve 子命令的常驻服务器，托管工作流 API 与指标端点
  - Middleware       — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - responseWriter   — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 子命令：run（执行工作流）、serve（常驻 HTTP 服务）、validate（校验定义）、
    viz（输出 Graphviz DOT）、version、help
  - 内置演示 Agent：core.echo、core.sleep、core.fail、math.sum、
    math.double、text.upper、text.template、time.now
  - 中间件链：Recovery、RequestID、RequestLogger
  - Metrics：/metrics 端点暴露 Prometheus 指标（serve 与 run --metrics-addr）
  - 优雅关闭：信号监听 → 关闭 HTTP → 遥测 Shutdown
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
