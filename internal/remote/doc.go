// Package remote uploads evaluation reports to a hosted evaluation service
// (the CLI's --langsmith mode). One experiment is posted per batch; each
// example carries its run id, status and evaluator feedback.
package remote
