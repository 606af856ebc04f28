// cmd/collector/root.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rovshanmuradov/solana-market-collector/internal/app"
	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/logger"
	"github.com/spf13/cobra"
)

type cli struct {
	configPath string
	cfg        *config.Config
	log        *logger.Logger
	runner     *app.Runner

	// collect options shared by every subcommand
	onchain    bool
	social     bool
	historical bool
	risk       bool
	maxSources int
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "collector",
		Short:         "Aggregate Solana token market data from several providers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML or JSON config file")

	root.AddCommand(
		newCollectCmd(c),
		newServeCmd(c),
		newWatchCmd(c),
	)
	return root
}

// addCollectFlags registers the per-call options on cmd.
func (c *cli) addCollectFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&c.onchain, "onchain", true, "query on-chain sources")
	cmd.Flags().BoolVar(&c.social, "social", true, "query social sources")
	cmd.Flags().BoolVar(&c.historical, "historical", true, "query historical sources")
	cmd.Flags().BoolVar(&c.risk, "risk", true, "score risk")
	cmd.Flags().IntVar(&c.maxSources, "max-sources", -1, "cap dispatched sources (-1 uses the config, 0 means all)")
}

func (c *cli) options() collector.Options {
	opts := c.runner.Options()
	opts.IncludeOnChain = c.onchain
	opts.IncludeSocial = c.social
	opts.IncludeHistorical = c.historical
	opts.IncludeRiskAnalysis = c.risk
	if c.maxSources >= 0 {
		opts.MaxSources = c.maxSources
	}
	return opts
}

// setup loads configuration and wires the runner. console=false keeps
// stdout free for the terminal UI.
func (c *cli) setup(console bool) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	logCfg := cfg.Logging
	logCfg.Console = logCfg.Console && console
	c.log, err = logger.New(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	c.runner, err = app.NewRunner(cfg, c.log.Logger)
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}
	return nil
}

func (c *cli) teardown() {
	if c.runner != nil {
		if err := c.runner.Close(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown finished with errors: %v\n", err)
		}
		return
	}
	if c.log != nil {
		if err := c.log.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
