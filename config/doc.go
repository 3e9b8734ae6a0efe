// Package config 提供 contextbench 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → CONTEXTBENCH_* 环境变量 的顺序叠加，
// 覆盖评测批次、被测 agent、LLM、一致性评审、缓存、指标、日志、遥测
// 以及远程报告上传。
package config
