// internal/sources/jupiter.go
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

const NameJupiter = "jupiter"

type jupiterPriceResponse struct {
	Data map[string]*struct {
		ID    string    `json:"id"`
		Type  string    `json:"type"`
		Price flexFloat `json:"price"`
	} `json:"data"`
}

type jupiterToken struct {
	Address     string    `json:"address"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Decimals    *int      `json:"decimals"`
	LogoURI     string    `json:"logoURI"`
	DailyVolume flexFloat `json:"daily_volume"`
}

// Jupiter combines the price API with the token list metadata.
type Jupiter struct {
	priceURL  string
	tokensURL string
	apiKey    string
	transport *transport
	logger    *zap.Logger
}

func NewJupiter(cfg config.JupiterConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *Jupiter {
	return &Jupiter{
		priceURL:  strings.TrimRight(cfg.BaseURL, "/"),
		tokensURL: strings.TrimRight(cfg.TokensURL, "/"),
		apiKey:    cfg.APIKey,
		transport: newTransport(NameJupiter, cfg.SourceConfig, client, logger, m),
		logger:    logger.Named(NameJupiter),
	}
}

func (j *Jupiter) Name() string         { return NameJupiter }
func (j *Jupiter) Kind() collector.Kind { return collector.KindCore }

// Fetch requires a price. Token metadata is best effort.
func (j *Jupiter) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	header := http.Header{}
	if j.apiKey != "" {
		header.Set("x-api-key", j.apiKey)
	}

	priceURL := fmt.Sprintf("%s/price/v2?ids=%s", j.priceURL, url.QueryEscape(address))
	var prices jupiterPriceResponse
	if err := j.transport.getJSON(ctx, priceURL, header, &prices); err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}

	entry := prices.Data[address]
	if entry == nil || !entry.Price.valid {
		return nil, fmt.Errorf("%w: no price for %s", ErrNotFound, address)
	}

	rec := market.NewPartial(address, NameJupiter)
	rec.Price = entry.Price.Ptr()

	if j.tokensURL == "" {
		return rec, nil
	}

	var token jupiterToken
	tokenURL := fmt.Sprintf("%s/token/%s", j.tokensURL, address)
	if err := j.transport.getJSON(ctx, tokenURL, header, &token); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		j.logger.Debug("token metadata unavailable", zap.String("address", address), zap.Error(err))
		return rec, nil
	}

	rec.Name = token.Name
	rec.Symbol = token.Symbol
	rec.Decimals = token.Decimals
	rec.LogoURI = token.LogoURI
	rec.Volume24h = token.DailyVolume.Ptr()
	return rec, nil
}
