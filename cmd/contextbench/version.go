package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/BaSui01/contextbench/internal/telemetry"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs neither config nor logger
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := Version
			if v == "dev" {
				v = telemetry.Version()
			}
			fmt.Fprintf(a.stdout, "contextbench %s\n", v)
			fmt.Fprintf(a.stdout, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(a.stdout, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Go:         %s\n", runtime.Version())
			return nil
		},
	}
}
