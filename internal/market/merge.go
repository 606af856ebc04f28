// internal/market/merge.go
package market

// reducer resolves one field of the aggregate from the current value and an
// incoming partial. It reports whether the incoming value was kept.
type reducer struct {
	field string
	apply func(dst, src *TokenMarketRecord) bool
}

// firstWins keeps cur once it is set. The incoming value is copied so the
// aggregate never aliases a cached partial.
func firstWins[T any](cur **T, incoming *T) bool {
	if *cur != nil || incoming == nil {
		return false
	}
	*cur = clonePtr(incoming)
	return true
}

func firstString(cur *string, incoming string) bool {
	if *cur != "" || incoming == "" {
		return false
	}
	*cur = incoming
	return true
}

func floatField(name string, get func(*TokenMarketRecord) **float64) reducer {
	return reducer{field: name, apply: func(dst, src *TokenMarketRecord) bool {
		return firstWins(get(dst), *get(src))
	}}
}

func int64Field(name string, get func(*TokenMarketRecord) **int64) reducer {
	return reducer{field: name, apply: func(dst, src *TokenMarketRecord) bool {
		return firstWins(get(dst), *get(src))
	}}
}

func stringField(name string, get func(*TokenMarketRecord) *string) reducer {
	return reducer{field: name, apply: func(dst, src *TokenMarketRecord) bool {
		return firstString(get(dst), *get(src))
	}}
}

// reducers lists every mergeable field. Derived, risk and provenance fields
// are computed after the merge and are not part of the table.
var reducers = []reducer{
	stringField("name", func(r *TokenMarketRecord) *string { return &r.Name }),
	stringField("symbol", func(r *TokenMarketRecord) *string { return &r.Symbol }),
	{field: "decimals", apply: func(dst, src *TokenMarketRecord) bool { return firstWins(&dst.Decimals, src.Decimals) }},
	stringField("logoURI", func(r *TokenMarketRecord) *string { return &r.LogoURI }),
	stringField("description", func(r *TokenMarketRecord) *string { return &r.Description }),

	floatField("price", func(r *TokenMarketRecord) **float64 { return &r.Price }),
	floatField("priceChange1h", func(r *TokenMarketRecord) **float64 { return &r.PriceChange1h }),
	floatField("priceChange6h", func(r *TokenMarketRecord) **float64 { return &r.PriceChange6h }),
	floatField("priceChange24h", func(r *TokenMarketRecord) **float64 { return &r.PriceChange24h }),
	floatField("priceChange7d", func(r *TokenMarketRecord) **float64 { return &r.PriceChange7d }),
	floatField("priceChange30d", func(r *TokenMarketRecord) **float64 { return &r.PriceChange30d }),
	floatField("high24h", func(r *TokenMarketRecord) **float64 { return &r.High24h }),
	floatField("low24h", func(r *TokenMarketRecord) **float64 { return &r.Low24h }),
	floatField("ath", func(r *TokenMarketRecord) **float64 { return &r.ATH }),
	{field: "athDate", apply: func(dst, src *TokenMarketRecord) bool { return firstWins(&dst.ATHDate, src.ATHDate) }},
	floatField("atl", func(r *TokenMarketRecord) **float64 { return &r.ATL }),
	{field: "atlDate", apply: func(dst, src *TokenMarketRecord) bool { return firstWins(&dst.ATLDate, src.ATLDate) }},

	floatField("volume1h", func(r *TokenMarketRecord) **float64 { return &r.Volume1h }),
	floatField("volume6h", func(r *TokenMarketRecord) **float64 { return &r.Volume6h }),
	floatField("volume24h", func(r *TokenMarketRecord) **float64 { return &r.Volume24h }),
	floatField("volume7d", func(r *TokenMarketRecord) **float64 { return &r.Volume7d }),
	floatField("liquidity", func(r *TokenMarketRecord) **float64 { return &r.Liquidity }),
	floatField("liquidityUsd", func(r *TokenMarketRecord) **float64 { return &r.LiquidityUSD }),
	floatField("marketCap", func(r *TokenMarketRecord) **float64 { return &r.MarketCap }),
	floatField("fullyDilutedValuation", func(r *TokenMarketRecord) **float64 { return &r.FullyDilutedValuation }),

	int64Field("buys24h", func(r *TokenMarketRecord) **int64 { return &r.Buys24h }),
	int64Field("sells24h", func(r *TokenMarketRecord) **int64 { return &r.Sells24h }),
	int64Field("transactions24h", func(r *TokenMarketRecord) **int64 { return &r.Transactions24h }),
	int64Field("uniqueWallets24h", func(r *TokenMarketRecord) **int64 { return &r.UniqueWallets24h }),
	int64Field("holdersCount", func(r *TokenMarketRecord) **int64 { return &r.HoldersCount }),

	floatField("totalSupply", func(r *TokenMarketRecord) **float64 { return &r.TotalSupply }),
	floatField("circulatingSupply", func(r *TokenMarketRecord) **float64 { return &r.CirculatingSupply }),
	floatField("maxSupply", func(r *TokenMarketRecord) **float64 { return &r.MaxSupply }),

	stringField("poolAddress", func(r *TokenMarketRecord) *string { return &r.PoolAddress }),
	stringField("dexName", func(r *TokenMarketRecord) *string { return &r.DexName }),
	floatField("pooledSol", func(r *TokenMarketRecord) **float64 { return &r.PooledSol }),
	floatField("pooledTokens", func(r *TokenMarketRecord) **float64 { return &r.PooledTokens }),

	stringField("website", func(r *TokenMarketRecord) *string { return &r.Website }),
	stringField("twitter", func(r *TokenMarketRecord) *string { return &r.Twitter }),
	stringField("telegram", func(r *TokenMarketRecord) *string { return &r.Telegram }),
	stringField("discord", func(r *TokenMarketRecord) *string { return &r.Discord }),
	stringField("github", func(r *TokenMarketRecord) *string { return &r.Github }),
	stringField("reddit", func(r *TokenMarketRecord) *string { return &r.Reddit }),

	stringField("mintAuthority", func(r *TokenMarketRecord) *string { return &r.MintAuthority }),
	stringField("freezeAuthority", func(r *TokenMarketRecord) *string { return &r.FreezeAuthority }),

	{field: "marketCapRank", apply: func(dst, src *TokenMarketRecord) bool { return firstWins(&dst.MarketCapRank, src.MarketCapRank) }},
}

// Merge folds src into dst. Fields already set on dst are never
// overwritten. Every source listed in src.DataSource is appended to
// dst.DataSource even when none of its fields survive. Merge returns the
// names of the fields src contributed.
func Merge(dst, src *TokenMarketRecord) []string {
	if dst == nil || src.IsEmpty() {
		return nil
	}

	kept := mergeFields(dst, src)
	dst.DataSource = append(dst.DataSource, src.DataSource...)
	return kept
}

func mergeFields(dst, src *TokenMarketRecord) []string {
	var kept []string
	for _, r := range reducers {
		if r.apply(dst, src) {
			kept = append(kept, r.field)
		}
	}
	return kept
}
