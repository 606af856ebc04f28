// cmd/collector/watch.go
package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(c *cli) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <address>",
		Short: "Refresh one token in a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(false); err != nil {
				return err
			}
			defer c.teardown()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return c.runner.Watch(ctx, args[0], interval, c.options())
		},
	}

	c.addCollectFlags(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval, overrides collector.watch_interval")
	return cmd
}
