// cmd/collector/serve.go
package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(true); err != nil {
				return err
			}
			defer c.teardown()

			if addr != "" {
				c.cfg.API.Addr = addr
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return c.runner.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides api.addr")
	return cmd
}
