package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/trajectory"
)

// oracleView is the JSON shape of "oracle --json".
type oracleView struct {
	TaskID     int                   `json:"task_id"`
	Name       string                `json:"name"`
	Scenario   string                `json:"scenario"`
	Query      string                `json:"query"`
	Answers    map[string]any        `json:"expected_answers"`
	Mode       trajectory.MatchMode  `json:"trajectory_mode"`
	Trajectory trajectory.Trajectory `json:"expected_trajectory"`
}

func newOracleCmd(a *app) *cobra.Command {
	var (
		taskID    int
		questions string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Show a task's expected answers and reference trajectory",
		Long: `Oracle computes the expected answer of every question of a task from the
deterministic data stores, and lists the reference tool calls.

Examples:
  contextbench oracle --task 3
  contextbench oracle --task 3 --questions "1,4-6" --json

Exit Codes:
  0  printed
  1  invalid question selection
  2  unknown task`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			task, ok := tasks.Default().Task(taskID)
			if !ok {
				return missingf("unknown task %d", taskID)
			}
			if questions != "" {
				nums, err := tasks.ParseQuestionSet(questions)
				if err != nil {
					return err
				}
				if task, err = task.Subset(nums); err != nil {
					return err
				}
			}
			answers, err := task.ExpectedAnswers()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(oracleView{
					TaskID:     task.ID,
					Name:       task.Name,
					Scenario:   string(task.Scenario),
					Query:      task.Query(),
					Answers:    answers,
					Mode:       task.TrajectoryMode,
					Trajectory: task.ExpectedTrajectory,
				})
			}

			fmt.Fprintf(a.stdout, "Task %d: %s [%s]\n", task.ID, task.Name, task.Scenario)
			if len(task.Questions) > 0 {
				fmt.Fprintln(a.stdout, "\nExpected answers:")
				for _, q := range task.Questions {
					fmt.Fprintf(a.stdout, "  %2d. %s\n      = %v\n", q.Number, q.Text, answers[q.Key()])
				}
			}
			fmt.Fprintf(a.stdout, "\nReference trajectory (%s match, %d calls):\n", task.TrajectoryMode, len(task.ExpectedTrajectory))
			for i, c := range task.ExpectedTrajectory {
				fmt.Fprintf(a.stdout, "  [%d] %s\n", i, c)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&taskID, "task", 0, "task id")
	cmd.Flags().StringVar(&questions, "questions", "", `restrict to question numbers, e.g. "5,7-9"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}
