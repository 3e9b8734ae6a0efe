/*
Package evaluation 对 agent 运行结果打分。

# 概述

每个 Evaluator 读取数据集记录的 reference_outputs 与一次运行的 Outputs，
返回 {key, score, comment}。评测器从不返回错误：输出缺失或格式错误只会
降低分数，并在 comment 中说明原因。

# 评测器

  - recall_accuracy: answers 代码块逐题比对，数值 1% 相对容差
  - trajectory_completeness: 参考轨迹命中率，可选严格顺序
  - trajectory_efficiency: 参考调用数 / 实际调用数
  - poisoning_references: 首个毒化错误之后对毒化标识的引用次数，分数按次数几何衰减
  - goal_cancellation: 毒化目标是否被取消
  - response_criteria: 最终回复中的必含短语
  - consistency: 报告各节正文与 answers 代码块是否一致，由 Judge 判定

# 判定器

NumericJudge 在本地抽取数字比对；LLMJudge 通过 llm.Provider 调用模型，
带限速与 JSON 修复；CachedJudge 用内存 LRU 加可选 Redis 缓存判定结果。

# 批量运行

Batch 以有限并发为每条记录构建独立的 agent，运行后逐一打分，
单条失败不影响其他记录；Report 汇总各 key 的均值并渲染表格。
*/
package evaluation
