/*
Package testutil 提供 contextbench 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 流辅助: CollectEvents / EventMessages / StreamError 收集 agent 事件流，
    StreamOf 用固定更新序列构造 runner.Agent
  - 数据工具: MustJSON

# 子包

  - testutil/mocks: MockProvider（脚本化 LLM Provider）与 MockJudge
    （一致性判定）
  - testutil/fixtures: 最终回复、工具消息与评测记录的测试数据
*/
package testutil
