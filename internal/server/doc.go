/*
包 server 在评测批次运行期间暴露 Prometheus 指标端点。

# 概述

Endpoint 封装 net/http.Server：/metrics 由 promhttp 基于调用方的
Gatherer 提供，/healthz 返回 ok。Start 非阻塞，Shutdown 在配置的
超时内排空连接，异步错误通过 Errors() 传出。
*/
package server
