// internal/sources/solscan.go
package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"go.uber.org/zap"
)

const NameSolscan = "solscan"

type solscanResponse struct {
	Success bool         `json:"success"`
	Data    *solscanMeta `json:"data"`
}

type solscanMeta struct {
	Address   string    `json:"address"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Icon      string    `json:"icon"`
	Decimals  *int      `json:"decimals"`
	Holder    flexFloat `json:"holder"`
	Supply    flexFloat `json:"supply"`
	Price     flexFloat `json:"price"`
	MarketCap flexFloat `json:"market_cap"`
	Volume24h flexFloat `json:"volume_24h"`
}

// Solscan reports holder counts and raw supply. It needs an API key.
type Solscan struct {
	baseURL   string
	apiKey    string
	transport *transport
}

func NewSolscan(cfg config.SourceConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *Solscan {
	return &Solscan{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		transport: newTransport(NameSolscan, cfg, client, logger, m),
	}
}

func (s *Solscan) Name() string         { return NameSolscan }
func (s *Solscan) Kind() collector.Kind { return collector.KindOnChain }

func (s *Solscan) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	header := http.Header{}
	header.Set("token", s.apiKey)

	endpoint := fmt.Sprintf("%s/token/meta?address=%s", s.baseURL, url.QueryEscape(address))
	var resp solscanResponse
	if err := s.transport.getJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, fmt.Errorf("get token meta: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("%w: success=%t", ErrMalformedResponse, resp.Success)
	}

	d := resp.Data
	rec := market.NewPartial(address, NameSolscan)
	rec.Name = d.Name
	rec.Symbol = d.Symbol
	rec.LogoURI = d.Icon
	rec.Decimals = d.Decimals
	rec.HoldersCount = d.Holder.Int64Ptr()
	rec.Price = d.Price.Ptr()
	rec.MarketCap = d.MarketCap.Ptr()
	rec.Volume24h = d.Volume24h.Ptr()
	// Supply is reported in base units.
	if d.Decimals != nil {
		rec.TotalSupply = scaleSupply(d.Supply.Ptr(), *d.Decimals)
	}
	return rec, nil
}
