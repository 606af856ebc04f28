// internal/sources/registry.go
package sources

import (
	"net/http"

	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"go.uber.org/zap"
)

// Build returns the enabled sources in dispatch order: core providers
// first, then social, then on-chain. The order is the merge priority.
func Build(cfg config.SourcesConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) []collector.Source {
	log := logger.Named("sources")
	var list []collector.Source

	add := func(enabled bool, name string, build func() collector.Source) {
		if !enabled {
			log.Info("source disabled", zap.String("source", name))
			return
		}
		list = append(list, build())
	}

	add(cfg.DexScreener.Enabled, NameDexScreener, func() collector.Source {
		return NewDexScreener(cfg.DexScreener, client, logger, m)
	})
	add(cfg.Jupiter.Enabled, NameJupiter, func() collector.Source {
		return NewJupiter(cfg.Jupiter, client, logger, m)
	})
	add(cfg.Birdeye.Enabled, NameBirdeye, func() collector.Source {
		if cfg.Birdeye.APIKey == "" {
			log.Warn("birdeye has no api key; every call will fail")
		}
		return NewBirdeye(cfg.Birdeye, client, logger, m)
	})
	add(cfg.CoinGecko.Enabled, NameCoinGecko, func() collector.Source {
		return NewCoinGecko(cfg.CoinGecko, client, logger, m)
	})
	add(cfg.SolanaRPC.Enabled, NameSolanaRPC, func() collector.Source {
		return NewSolanaRPC(cfg.SolanaRPC, logger, m)
	})
	add(cfg.Solscan.Enabled, NameSolscan, func() collector.Source {
		if cfg.Solscan.APIKey == "" {
			log.Warn("solscan has no api key; every call will fail")
		}
		return NewSolscan(cfg.Solscan, client, logger, m)
	})

	return list
}
