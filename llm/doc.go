/*
包 llm 提供模型接入层的最小抽象：Provider 接口与聊天请求/响应模型。

# 概述

运行驱动与一致性评审只依赖 [Provider]。被测智能体的模型与 LLM 评审
都通过它接入；子包 openaicompat 提供 OpenAI 兼容的 HTTP 实现，
[ResilientProvider] 为其加上重试与断路器，
testutil/mocks 提供脚本化的测试实现。

消息与工具模型直接复用 types 包中的 Message / ToolCall / ToolSchema，
因此 Provider 的输出可以原样进入消息日志。
*/
package llm
