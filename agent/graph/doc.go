// Package graph 提供单图 ReAct 运行时：model → tools → middleware 循环，
// 以 runner.Agent 的形式流式输出每个节点的增量消息。
package graph
