package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newResultsCmd(root *rootOptions) *cobra.Command {
	var aggregate bool
	cmd := &cobra.Command{
		Use:   "results <test_id>",
		Short: "Print stored results (or their aggregate) for a test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("test_id must be an integer: %q", args[0])
			}
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			var v any
			if aggregate {
				v, err = a.repo.GetAggregateTestResults(cmd.Context(), testID)
			} else {
				v, err = a.repo.GetTestResults(cmd.Context(), testID)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().BoolVar(&aggregate, "aggregate", false, "print summary statistics instead of rows")
	return cmd
}
