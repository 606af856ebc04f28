// internal/market/record.go
package market

import "time"

// RiskLevel is a coarse heuristic classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Failure describes a source that contributed nothing to a record.
type Failure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// TokenMarketRecord is the consolidated view of one token assembled from
// several market-data sources. Sources return the same type with only the
// fields they know filled in (a partial record).
//
// Numeric optionals are pointers, nil meaning unset. Optional strings use ""
// for unset.
type TokenMarketRecord struct {
	Address string `json:"address"`

	// Identity
	Name        string `json:"name,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Decimals    *int   `json:"decimals,omitempty"`
	LogoURI     string `json:"logoURI,omitempty"`
	Description string `json:"description,omitempty"`

	// Pricing
	Price          *float64   `json:"price,omitempty"`
	PriceChange1h  *float64   `json:"priceChange1h,omitempty"`
	PriceChange6h  *float64   `json:"priceChange6h,omitempty"`
	PriceChange24h *float64   `json:"priceChange24h,omitempty"`
	PriceChange7d  *float64   `json:"priceChange7d,omitempty"`
	PriceChange30d *float64   `json:"priceChange30d,omitempty"`
	High24h        *float64   `json:"high24h,omitempty"`
	Low24h         *float64   `json:"low24h,omitempty"`
	ATH            *float64   `json:"ath,omitempty"`
	ATHDate        *time.Time `json:"athDate,omitempty"`
	ATL            *float64   `json:"atl,omitempty"`
	ATLDate        *time.Time `json:"atlDate,omitempty"`

	// Volume and liquidity
	Volume1h              *float64 `json:"volume1h,omitempty"`
	Volume6h              *float64 `json:"volume6h,omitempty"`
	Volume24h             *float64 `json:"volume24h,omitempty"`
	Volume7d              *float64 `json:"volume7d,omitempty"`
	Liquidity             *float64 `json:"liquidity,omitempty"`
	LiquidityUSD          *float64 `json:"liquidityUsd,omitempty"`
	MarketCap             *float64 `json:"marketCap,omitempty"`
	FullyDilutedValuation *float64 `json:"fullyDilutedValuation,omitempty"`

	// Trading activity
	Buys24h          *int64 `json:"buys24h,omitempty"`
	Sells24h         *int64 `json:"sells24h,omitempty"`
	Transactions24h  *int64 `json:"transactions24h,omitempty"`
	UniqueWallets24h *int64 `json:"uniqueWallets24h,omitempty"`
	HoldersCount     *int64 `json:"holdersCount,omitempty"`

	// Supply
	TotalSupply       *float64 `json:"totalSupply,omitempty"`
	CirculatingSupply *float64 `json:"circulatingSupply,omitempty"`
	MaxSupply         *float64 `json:"maxSupply,omitempty"`

	// Pool / venue
	PoolAddress  string   `json:"poolAddress,omitempty"`
	DexName      string   `json:"dexName,omitempty"`
	PooledSol    *float64 `json:"pooledSol,omitempty"`
	PooledTokens *float64 `json:"pooledTokens,omitempty"`

	// Social
	Website  string `json:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
	Github   string `json:"github,omitempty"`
	Reddit   string `json:"reddit,omitempty"`

	// On-chain mint authorities, "" when revoked or unknown
	MintAuthority   string `json:"mintAuthority,omitempty"`
	FreezeAuthority string `json:"freezeAuthority,omitempty"`

	// Derived
	Volatility             *float64 `json:"volatility,omitempty"`
	Volume24hChangePercent *float64 `json:"volume24hChangePercent,omitempty"`
	MarketCapRank          *int     `json:"marketCapRank,omitempty"`

	// Risk
	LiquidityRisk     RiskLevel `json:"liquidityRisk,omitempty"`
	RugPullRisk       RiskLevel `json:"rugPullRisk,omitempty"`
	ConcentrationRisk RiskLevel `json:"concentrationRisk,omitempty"`

	// Provenance
	DataSource  []string  `json:"dataSource"`
	LastUpdated time.Time `json:"lastUpdated"`
	Confidence  float64   `json:"confidence"`
	Failures    []Failure `json:"failures,omitempty"`
}

// NewRecord returns an empty record for address stamped with now.
func NewRecord(address string, now time.Time) *TokenMarketRecord {
	return &TokenMarketRecord{
		Address:     address,
		DataSource:  []string{},
		LastUpdated: now,
	}
}

// NewPartial returns an empty partial record attributed to source.
func NewPartial(address, source string) *TokenMarketRecord {
	return &TokenMarketRecord{
		Address:    address,
		DataSource: []string{source},
	}
}

// IsEmpty reports whether the record carries no contribution at all.
func (r *TokenMarketRecord) IsEmpty() bool {
	return r == nil || len(r.DataSource) == 0
}

// Clone returns a copy that shares no mutable state with r.
func (r *TokenMarketRecord) Clone() *TokenMarketRecord {
	if r == nil {
		return nil
	}
	out := NewRecord(r.Address, r.LastUpdated)
	mergeFields(out, r)
	out.DataSource = append(out.DataSource, r.DataSource...)
	out.Confidence = r.Confidence
	out.LiquidityRisk = r.LiquidityRisk
	out.RugPullRisk = r.RugPullRisk
	out.ConcentrationRisk = r.ConcentrationRisk
	out.Volatility = clonePtr(r.Volatility)
	out.Volume24hChangePercent = clonePtr(r.Volume24hChangePercent)
	if len(r.Failures) > 0 {
		out.Failures = append([]Failure(nil), r.Failures...)
	}
	return out
}

// Float returns a pointer to v. Convenience for literals in partial records.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Time returns a pointer to v.
func Time(v time.Time) *time.Time { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
