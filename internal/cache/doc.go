/*
包 cache 提供两级 JSON 缓存：进程内 LRU（golang-lru）加可选的 Redis 层
（go-redis）。一致性评审的判定结果按请求摘要缓存在这里，
重复评估同一份报告时不再调用外部模型。

# 核心类型

  - Tiered：两级缓存，先查 LRU 再查 Redis，Redis 命中会回填 LRU；
    Redis 故障只记日志，调用方只看到未命中。
  - Manager：Redis 层，负责连接、键前缀与过期时间。
  - Config：Redis 层配置，可由 config 包从 YAML 与环境变量加载。
*/
package cache
