package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/decisionstack/decisionstack/pkg/dataset"
	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
)

// EvaluateCmd scores one dataset file, or stdin, and prints the decision.
func EvaluateCmd() *cobra.Command {
	var (
		file          string
		format        string
		metric        string
		dropPct       int
		varPct        int
		output        string
		includeSeries bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one metric of a dataset file",
		Example: `  decide evaluate --file sales.csv --metric revenue
  decide evaluate --file sales.csv --drop 20 --variability 30 --output json
  cat data.json | decide evaluate --file - --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output %q: want text|json", output)
			}
			params := engine.ScenarioParams{DropPct: dropPct, VariabilityPct: varPct}
			if err := params.Validate(); err != nil {
				return err
			}

			tbl, err := readTable(cmd.InOrStdin(), file, format)
			if err != nil {
				return err
			}

			res, err := engine.EvaluateDataset(tbl, metric, params)
			if err != nil {
				return err
			}

			report := types.NewReport(types.Meta{
				SourceID:      file,
				SourceType:    "file",
				Title:         tbl.Title(),
				IncludeSeries: includeSeries,
			}, res, time.Now())

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), renderReport(report))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "dataset file, or - for stdin")
	cmd.Flags().StringVar(&format, "format", "", "csv|json|yaml|prometheus (default: from file extension)")
	cmd.Flags().StringVarP(&metric, "metric", "m", "", "column to evaluate (default: first numeric column)")
	cmd.Flags().IntVar(&dropPct, "drop", engine.DefaultDropPct, "what-if drop in percent (0-50)")
	cmd.Flags().IntVar(&varPct, "variability", engine.DefaultVariabilityPct, "what-if variability increase in percent (0-50)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "text|json")
	cmd.Flags().BoolVar(&includeSeries, "include-series", false, "include the evaluated values in json output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readTable parses path ("-" for stdin) in format, falling back to the
// format implied by the extension.
func readTable(stdin io.Reader, path, format string) (*dataset.Table, error) {
	f, err := dataset.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if f == "" {
		f = dataset.FormatFromPath(path)
	}

	if path == "-" {
		return dataset.Parse(stdin, f, "stdin")
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return dataset.Parse(fh, f, path)
}
