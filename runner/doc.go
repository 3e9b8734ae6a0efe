/*
Package runner drives one agent run.

An Agent streams Updates (node name → Delta). The Driver consumes the stream,
keeps the ordered message trace, flattens every tool call emitted by any node
into one trajectory, remembers the last non-empty assistant message as the
final response and stops the agent once the turn budget is spent.

	d := runner.NewDriver(runner.Config{MaxTurns: 40}, logger)
	res, err := d.Run(ctx, agent, runner.InitialMessages(system, query))
*/
package runner
