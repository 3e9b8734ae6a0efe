// Package tasks is the task catalog: numbered research questions bound to
// oracle queries, shipping support tickets with response criteria, and
// finance tasks with a planted false fact. Each task carries a reference
// trajectory and the datasets group tasks by the failure mode they probe.
package tasks
