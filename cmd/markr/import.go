package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a scanner export file into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if int64(len(body)) > cfg.MaxBodyBytes {
				return fmt.Errorf("%s: %d bytes exceeds max_body_bytes %d", args[0], len(body), cfg.MaxBodyBytes)
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			rc, err := a.ingest.Ingest(cmd.Context(), contentType, body)
			if err != nil {
				return fmt.Errorf("import %s: %w", rc.ID, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rc.Outcome)
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "payload media type (sniffed when empty)")
	return cmd
}
