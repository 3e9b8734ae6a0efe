/*
Package replay provides deterministic reference models.

A Model plays a task's reference trajectory back through the normal agent
runtime, one call per turn by default, observes every tool payload and then
commits and reports answers recombined from those payloads. Running the
catalog through it checks that every question is answerable from the tool
surface alone. Researcher and Supervisor models do the same for the
multi-agent variant.

	model, _ := replay.New(task)
	agent := graph.New(model, executor, logger, graph.WithMiddleware(mw))
*/
package replay
