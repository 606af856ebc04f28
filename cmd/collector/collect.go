// cmd/collector/collect.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/rovshanmuradov/solana-market-collector/internal/export"
	"github.com/rovshanmuradov/solana-market-collector/internal/ui"
	"github.com/spf13/cobra"
)

func newCollectCmd(c *cli) *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "collect <address> [address...]",
		Short: "Collect market data for one or more token mints",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(false); err != nil {
				return err
			}
			defer c.teardown()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			records := c.runner.CollectMany(ctx, args, c.options())
			exporter := export.NewRecordExporter(c.log.Logger)

			if outDir != "" {
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				path, err := exporter.ExportRecords(records, export.ExportOptions{Format: f, OutputDir: outDir})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			switch format {
			case "table":
				for _, rec := range records {
					fmt.Fprintln(cmd.OutOrStdout(), ui.RenderRecord(rec, true))
				}
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if len(records) == 1 {
					return enc.Encode(records[0])
				}
				return enc.Encode(records)
			default:
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				return exporter.Write(cmd.OutOrStdout(), records, f)
			}
		},
	}

	c.addCollectFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, table or csv")
	cmd.Flags().StringVar(&outDir, "out", "", "write a timestamped export file into this directory")
	return cmd
}
