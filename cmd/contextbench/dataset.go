package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/tasks"
)

func newDatasetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Inspect and export the built-in datasets",
	}
	cmd.AddCommand(newDatasetListCmd(a), newDatasetExportCmd(a))
	return cmd
}

func newDatasetListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in datasets",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			catalog := tasks.Default()
			for _, name := range catalog.DatasetNames() {
				ds, err := catalog.Dataset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%-22s %2d tasks  %s\n", ds.Name, len(ds.Tasks), ds.Description)
			}
			return nil
		},
	}
}

func newDatasetExportCmd(a *app) *cobra.Command {
	var (
		dataset string
		format  string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a dataset's records as YAML or JSON",
		Long: `Export writes the records of a built-in dataset: inputs, reference outputs
and metadata. With --output and no --format the file extension picks the
format. The file can be evaluated again with "contextbench run --from".

Examples:
  contextbench dataset export --dataset finance-poisoning
  contextbench dataset export --dataset shipping-support --format json --output shipping.json

Exit Codes:
  0  exported
  1  unsupported format or write failure
  2  unknown dataset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := tasks.Default().Dataset(dataset)
			if err != nil {
				return missingf("%w", err)
			}
			if output != "" && !cmd.Flags().Changed("format") {
				if err := tasks.WriteDataset(output, ds); err != nil {
					return err
				}
				a.logger.Debug("dataset exported", zap.String("dataset", ds.Name), zap.String("path", output))
				return nil
			}
			f := tasks.Format(format)
			if f != tasks.FormatYAML && f != tasks.FormatJSON {
				return fmt.Errorf("unsupported format %q (yaml or json)", format)
			}
			recs, err := ds.Records()
			if err != nil {
				return fmt.Errorf("build records of %s: %w", ds.Name, err)
			}

			w := a.stdout
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}
			if err := tasks.EncodeRecords(w, recs, f); err != nil {
				return fmt.Errorf("encode %s: %w", ds.Name, err)
			}
			a.logger.Debug("dataset exported",
				zap.String("dataset", ds.Name),
				zap.Int("records", len(recs)),
				zap.String("format", string(f)))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name")
	cmd.Flags().StringVar(&format, "format", string(tasks.FormatYAML), "output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
