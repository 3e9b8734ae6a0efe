/*
Package main 提供 contextbench 命令行程序入口。

# 概述

cmd/contextbench 基于 cobra 组织子命令：run 执行评测批次，dataset 列出
与导出内置数据集，oracle 打印任务的标准答案与参考轨迹，version 打印
构建信息。配置按 默认值 → --config YAML → CONTEXTBENCH_* 环境变量 叠加，
启动时先加载 .env 文件。

# 主要能力

  - run：按数据集或单个任务（--task / --case）构建评测计划，支持
    --questions 子集、--scenario 切换工具面、--from 读取导出的记录
  - 被测 agent：默认 replay 参考 agent；agent.kind=llm 时使用
    OpenAI 兼容 provider（带重试与熔断）
  - 一致性评审：numeric / llm / none，经进程内 LRU 与可选 Redis 缓存
  - 指标：metrics.enabled 时在独立端口暴露 /metrics 与 /healthz
  - 远程上报：--langsmith 把实验结果上传到 remote.endpoint

# 退出码

  - 0 成功
  - 1 运行失败或存在失败样例
  - 2 缺少必需组件（未知数据集或任务、未配置远程端点、未配置 LLM provider）

构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置。
*/
package main
