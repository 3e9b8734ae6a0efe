/*
Package types 提供 contextbench 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 store、tools、trajectory、
runner、agent 与 evaluation 等上层模块提供统一的类型契约。

# 核心类型

  - Message / ToolCall  对话消息与工具调用（system / user / assistant / tool）
  - ToolSchema          工具定义（name + description + closed JSON Schema）
  - ToolOutcome         工具结果的标签联合：ok(payload) | err(kind, message)
  - Error / ErrorCode   结构化错误体系（not_found、invalid、protocol、
    budget_exceeded、parse、judge_error）
  - JSONSchema          JSON Schema 定义与构建器（NewObjectSchema 等）
  - Tokenizer           Token 计数接口与 EstimateTokenizer

# 主要能力

  - Context 传播：WithTraceID / WithRunID / WithTaskID
  - 错误工具链：AsError / IsErrorCode / GetErrorCode
  - 工具结果编码：OK / Fail / DecodeOutcome
*/
package types
