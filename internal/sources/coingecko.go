// internal/sources/coingecko.go
package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"go.uber.org/zap"
)

const NameCoinGecko = "coingecko"

type coinGeckoCoin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Description   struct {
		En string `json:"en"`
	} `json:"description"`
	Image struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"image"`
	Links struct {
		Homepage        []string `json:"homepage"`
		TwitterName     string   `json:"twitter_screen_name"`
		TelegramChannel string   `json:"telegram_channel_identifier"`
		SubredditURL    string   `json:"subreddit_url"`
		ReposURL        struct {
			Github []string `json:"github"`
		} `json:"repos_url"`
	} `json:"links"`
	MarketData *coinGeckoMarketData `json:"market_data"`
}

type usdValue struct {
	USD flexFloat `json:"usd"`
}

type usdDate struct {
	USD string `json:"usd"`
}

type coinGeckoMarketData struct {
	CurrentPrice   usdValue  `json:"current_price"`
	ATH            usdValue  `json:"ath"`
	ATHDate        usdDate   `json:"ath_date"`
	ATL            usdValue  `json:"atl"`
	ATLDate        usdDate   `json:"atl_date"`
	High24h        usdValue  `json:"high_24h"`
	Low24h         usdValue  `json:"low_24h"`
	MarketCap      usdValue  `json:"market_cap"`
	FDV            usdValue  `json:"fully_diluted_valuation"`
	TotalVolume    usdValue  `json:"total_volume"`
	Change24h      flexFloat `json:"price_change_percentage_24h"`
	Change7d       flexFloat `json:"price_change_percentage_7d"`
	Change30d      flexFloat `json:"price_change_percentage_30d"`
	TotalSupply    flexFloat `json:"total_supply"`
	MaxSupply      flexFloat `json:"max_supply"`
	CirculatingSup flexFloat `json:"circulating_supply"`
}

// CoinGecko provides identity, social links and long-range market history.
type CoinGecko struct {
	baseURL   string
	apiKey    string
	transport *transport
}

func NewCoinGecko(cfg config.SourceConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *CoinGecko {
	return &CoinGecko{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		transport: newTransport(NameCoinGecko, cfg, client, logger, m),
	}
}

func (c *CoinGecko) Name() string         { return NameCoinGecko }
func (c *CoinGecko) Kind() collector.Kind { return collector.KindSocial }

func (c *CoinGecko) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("x-cg-demo-api-key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/coins/solana/contract/%s", c.baseURL, address)
	var coin coinGeckoCoin
	if err := c.transport.getJSON(ctx, endpoint, header, &coin); err != nil {
		return nil, fmt.Errorf("get coin: %w", err)
	}
	if coin.ID == "" {
		return nil, fmt.Errorf("%w: empty coin id", ErrMalformedResponse)
	}

	rec := market.NewPartial(address, NameCoinGecko)
	rec.Name = coin.Name
	rec.Symbol = strings.ToUpper(coin.Symbol)
	rec.Description = strings.TrimSpace(coin.Description.En)
	rec.LogoURI = coin.Image.Large
	rec.MarketCapRank = coin.MarketCapRank

	for _, home := range coin.Links.Homepage {
		if home != "" {
			rec.Website = home
			break
		}
	}
	if coin.Links.TwitterName != "" {
		rec.Twitter = "https://twitter.com/" + coin.Links.TwitterName
	}
	if coin.Links.TelegramChannel != "" {
		rec.Telegram = "https://t.me/" + coin.Links.TelegramChannel
	}
	rec.Reddit = coin.Links.SubredditURL
	for _, repo := range coin.Links.ReposURL.Github {
		if repo != "" {
			rec.Github = repo
			break
		}
	}

	if md := coin.MarketData; md != nil {
		rec.Price = md.CurrentPrice.USD.Ptr()
		rec.ATH = md.ATH.USD.Ptr()
		rec.ATHDate = parseTime(md.ATHDate.USD)
		rec.ATL = md.ATL.USD.Ptr()
		rec.ATLDate = parseTime(md.ATLDate.USD)
		rec.High24h = md.High24h.USD.Ptr()
		rec.Low24h = md.Low24h.USD.Ptr()
		rec.MarketCap = md.MarketCap.USD.Ptr()
		rec.FullyDilutedValuation = md.FDV.USD.Ptr()
		rec.Volume24h = md.TotalVolume.USD.Ptr()
		rec.PriceChange24h = md.Change24h.Ptr()
		rec.PriceChange7d = md.Change7d.Ptr()
		rec.PriceChange30d = md.Change30d.Ptr()
		rec.TotalSupply = md.TotalSupply.Ptr()
		rec.MaxSupply = md.MaxSupply.Ptr()
		rec.CirculatingSupply = md.CirculatingSup.Ptr()
	}
	return rec, nil
}
