// Package hierarchical 提供 Supervisor-Researcher 两层结构的多 Agent 运行时。
//
// Supervisor 通过 think_tool 反思、deep_research/general_research 委派、
// research_complete 收尾；每个委派进入有界工作队列，按顺序由独立的
// Researcher 子图执行。Researcher 必须先 store_deliverable 再 finish，
// 其产出按预声明的交付键写入共享的研究状态。
//
// Supervisor 实现 runner.Agent，子图的每个增量以 "researcher:<key>"
// 节点名转发，因此运行驱动可以把所有工具调用展平为一条轨迹。
package hierarchical
