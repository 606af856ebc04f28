// internal/sources/birdeye.go
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

const NameBirdeye = "birdeye"

type birdeyeResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *birdeyeOverview `json:"data"`
}

type birdeyeOverview struct {
	Address           string    `json:"address"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	Decimals          *int      `json:"decimals"`
	LogoURI           string    `json:"logoURI"`
	Price             flexFloat `json:"price"`
	PriceChange1h     flexFloat `json:"priceChange1hPercent"`
	PriceChange6h     flexFloat `json:"priceChange6hPercent"`
	PriceChange24h    flexFloat `json:"priceChange24hPercent"`
	Volume1h          flexFloat `json:"v1hUSD"`
	Volume6h          flexFloat `json:"v6hUSD"`
	Volume24h         flexFloat `json:"v24hUSD"`
	Liquidity         flexFloat `json:"liquidity"`
	MarketCap         flexFloat `json:"mc"`
	Holders           flexFloat `json:"holder"`
	UniqueWallets24h  flexFloat `json:"uniqueWallet24h"`
	Buys24h           flexFloat `json:"buy24h"`
	Sells24h          flexFloat `json:"sell24h"`
	Trades24h         flexFloat `json:"trade24h"`
	Supply            flexFloat `json:"supply"`
	CirculatingSupply flexFloat `json:"circulatingSupply"`
	Extensions        *struct {
		Website     string `json:"website"`
		Twitter     string `json:"twitter"`
		Telegram    string `json:"telegram"`
		Discord     string `json:"discord"`
		Description string `json:"description"`
	} `json:"extensions"`
}

// Birdeye reads the token overview endpoint. It needs an API key.
type Birdeye struct {
	baseURL   string
	apiKey    string
	transport *transport
}

func NewBirdeye(cfg config.SourceConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *Birdeye {
	return &Birdeye{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		transport: newTransport(NameBirdeye, cfg, client, logger, m),
	}
}

func (b *Birdeye) Name() string         { return NameBirdeye }
func (b *Birdeye) Kind() collector.Kind { return collector.KindCore }

func (b *Birdeye) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	if b.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	header := http.Header{}
	header.Set("X-API-KEY", b.apiKey)
	header.Set("x-chain", solanaChain)

	endpoint := fmt.Sprintf("%s/defi/token_overview?address=%s", b.baseURL, url.QueryEscape(address))
	var resp birdeyeResponse
	if err := b.transport.getJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, fmt.Errorf("get token overview: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("%w: success=%t message=%q", ErrMalformedResponse, resp.Success, resp.Message)
	}

	d := resp.Data
	rec := market.NewPartial(address, NameBirdeye)
	rec.Name = d.Name
	rec.Symbol = d.Symbol
	rec.Decimals = d.Decimals
	rec.LogoURI = d.LogoURI
	rec.Price = d.Price.Ptr()
	rec.PriceChange1h = d.PriceChange1h.Ptr()
	rec.PriceChange6h = d.PriceChange6h.Ptr()
	rec.PriceChange24h = d.PriceChange24h.Ptr()
	rec.Volume1h = d.Volume1h.Ptr()
	rec.Volume6h = d.Volume6h.Ptr()
	rec.Volume24h = d.Volume24h.Ptr()
	rec.Liquidity = d.Liquidity.Ptr()
	rec.LiquidityUSD = d.Liquidity.Ptr()
	rec.MarketCap = d.MarketCap.Ptr()
	rec.HoldersCount = d.Holders.Int64Ptr()
	rec.UniqueWallets24h = d.UniqueWallets24h.Int64Ptr()
	rec.Buys24h = d.Buys24h.Int64Ptr()
	rec.Sells24h = d.Sells24h.Int64Ptr()
	rec.Transactions24h = d.Trades24h.Int64Ptr()
	rec.TotalSupply = d.Supply.Ptr()
	rec.CirculatingSupply = d.CirculatingSupply.Ptr()

	if ext := d.Extensions; ext != nil {
		rec.Website = ext.Website
		rec.Twitter = ext.Twitter
		rec.Telegram = ext.Telegram
		rec.Discord = ext.Discord
		rec.Description = ext.Description
	}
	return rec, nil
}
