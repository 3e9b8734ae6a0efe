/*
包 metrics 提供基于 Prometheus 的评测链路指标采集能力，覆盖
运行、工具调用、历史重写中间件、评估器与缓存五个维度。

# 概述

Collector 通过 promauto.With 把指标注册到调用方传入的 Registerer，
测试可以使用独立的 prometheus.NewRegistry() 互不干扰。nil Collector
的所有记录方法都是空操作。

# 主要能力

  - 运行指标：按 scenario/status 统计运行次数、轮次与耗时。
  - 工具指标：按 tool/outcome 统计调用次数与耗时。
  - 中间件指标：重写次数、移除的消息数与节省的 token 数。
  - 评估指标：按 key 记录分数分布，按 status 统计 judge 请求。
  - 缓存指标：judge 结论缓存的命中与未命中。
*/
package metrics
