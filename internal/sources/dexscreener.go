// internal/sources/dexscreener.go
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

const (
	NameDexScreener = "dexscreener"
	solanaChain     = "solana"
)

type dexScreenerResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID     string       `json:"chainId"`
	DexID       string       `json:"dexId"`
	PairAddress string       `json:"pairAddress"`
	BaseToken   dexToken     `json:"baseToken"`
	QuoteToken  dexToken     `json:"quoteToken"`
	PriceUSD    flexFloat    `json:"priceUsd"`
	Txns        dexTxns      `json:"txns"`
	Volume      dexWindows   `json:"volume"`
	PriceChange dexWindows   `json:"priceChange"`
	Liquidity   dexLiquidity `json:"liquidity"`
	FDV         flexFloat    `json:"fdv"`
	MarketCap   flexFloat    `json:"marketCap"`
	Info        *dexInfo     `json:"info"`
}

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexTxns struct {
	H24 struct {
		Buys  flexFloat `json:"buys"`
		Sells flexFloat `json:"sells"`
	} `json:"h24"`
}

type dexWindows struct {
	H1  flexFloat `json:"h1"`
	H6  flexFloat `json:"h6"`
	H24 flexFloat `json:"h24"`
}

type dexLiquidity struct {
	USD   flexFloat `json:"usd"`
	Base  flexFloat `json:"base"`
	Quote flexFloat `json:"quote"`
}

type dexInfo struct {
	ImageURL string `json:"imageUrl"`
	Websites []struct {
		Label string `json:"label"`
		URL   string `json:"url"`
	} `json:"websites"`
	Socials []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"socials"`
}

// DexScreener reads pair data from the DexScreener public API.
type DexScreener struct {
	baseURL   string
	transport *transport
	logger    *zap.Logger
}

func NewDexScreener(cfg config.SourceConfig, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *DexScreener {
	return &DexScreener{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		transport: newTransport(NameDexScreener, cfg, client, logger, m),
		logger:    logger.Named(NameDexScreener),
	}
}

func (d *DexScreener) Name() string         { return NameDexScreener }
func (d *DexScreener) Kind() collector.Kind { return collector.KindCore }

func (d *DexScreener) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, address)

	var resp dexScreenerResponse
	if err := d.transport.getJSON(ctx, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("get token pairs: %w", err)
	}

	pair := bestPair(resp.Pairs)
	if pair == nil {
		return nil, ErrNoPairs
	}

	d.logger.Debug("selected pair",
		zap.String("pair_address", pair.PairAddress),
		zap.String("dex", pair.DexID),
		zap.Int("candidates", len(resp.Pairs)))

	return pair.toRecord(address), nil
}

// bestPair picks the Solana pair with the most USD liquidity. Ties keep the
// first pair seen; a pair without liquidity only wins when nothing has any.
func bestPair(pairs []dexPair) *dexPair {
	var best *dexPair
	for i := range pairs {
		p := &pairs[i]
		if p.ChainID != "" && p.ChainID != solanaChain {
			continue
		}
		if best == nil {
			best = p
			continue
		}
		if p.Liquidity.USD.valid && (!best.Liquidity.USD.valid || p.Liquidity.USD.value > best.Liquidity.USD.value) {
			best = p
		}
	}
	return best
}

func (p *dexPair) toRecord(address string) *market.TokenMarketRecord {
	rec := market.NewPartial(address, NameDexScreener)

	rec.Name = p.BaseToken.Name
	rec.Symbol = p.BaseToken.Symbol
	rec.Price = p.PriceUSD.Ptr()
	rec.PriceChange1h = p.PriceChange.H1.Ptr()
	rec.PriceChange6h = p.PriceChange.H6.Ptr()
	rec.PriceChange24h = p.PriceChange.H24.Ptr()
	rec.Volume1h = p.Volume.H1.Ptr()
	rec.Volume6h = p.Volume.H6.Ptr()
	rec.Volume24h = p.Volume.H24.Ptr()
	rec.Liquidity = p.Liquidity.USD.Ptr()
	rec.LiquidityUSD = p.Liquidity.USD.Ptr()
	rec.MarketCap = p.MarketCap.Ptr()
	rec.FullyDilutedValuation = p.FDV.Ptr()
	rec.Buys24h = p.Txns.H24.Buys.Int64Ptr()
	rec.Sells24h = p.Txns.H24.Sells.Int64Ptr()
	rec.Transactions24h = sumCounts(rec.Buys24h, rec.Sells24h)
	rec.PoolAddress = p.PairAddress
	rec.DexName = p.DexID
	rec.PooledTokens = p.Liquidity.Base.Ptr()
	if strings.EqualFold(p.QuoteToken.Symbol, "SOL") || strings.EqualFold(p.QuoteToken.Symbol, "WSOL") {
		rec.PooledSol = p.Liquidity.Quote.Ptr()
	}

	if p.Info != nil {
		rec.LogoURI = p.Info.ImageURL
		for _, w := range p.Info.Websites {
			if w.URL != "" {
				rec.Website = w.URL
				break
			}
		}
		for _, s := range p.Info.Socials {
			switch strings.ToLower(s.Type) {
			case "twitter", "x":
				setOnce(&rec.Twitter, s.URL)
			case "telegram":
				setOnce(&rec.Telegram, s.URL)
			case "discord":
				setOnce(&rec.Discord, s.URL)
			}
		}
	}
	return rec
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
