// internal/market/derived.go
package market

import "math"

// Derive fills the fields computable from what the sources returned:
// volatility, the 24h volume trend and the implied market cap / FDV.
func Derive(r *TokenMarketRecord) {
	if r == nil {
		return
	}

	if v, ok := volatility(r.PriceChange1h, r.PriceChange6h, r.PriceChange24h); ok {
		r.Volatility = &v
	}

	if r.Volume1h != nil && r.Volume24h != nil && *r.Volume24h != 0 {
		projected := *r.Volume1h * 24
		change := (projected - *r.Volume24h) / *r.Volume24h * 100
		if finite(change) {
			r.Volume24hChangePercent = &change
		}
	}

	if r.MarketCap == nil && r.Price != nil && r.CirculatingSupply != nil {
		mc := *r.Price * *r.CirculatingSupply
		if finite(mc) {
			r.MarketCap = &mc
		}
	}

	if r.FullyDilutedValuation == nil && r.Price != nil && r.TotalSupply != nil {
		fdv := *r.Price * *r.TotalSupply
		if finite(fdv) {
			r.FullyDilutedValuation = &fdv
		}
	}
}

// volatility is the dispersion of the present percentage changes around a
// zero-change baseline: sqrt(sum(x^2)/n). Fewer than two samples yield no
// value.
func volatility(samples ...*float64) (float64, bool) {
	var (
		sumSquares float64
		n          int
	)
	for _, s := range samples {
		if s == nil {
			continue
		}
		sumSquares += *s * *s
		n++
	}
	if n < 2 {
		return 0, false
	}
	return math.Sqrt(sumSquares / float64(n)), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
