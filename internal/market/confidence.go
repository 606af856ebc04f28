// internal/market/confidence.go
package market

import "math"

const (
	sourceWeight    = 0.5
	maxSourceScore  = 3.0
	fieldScoreScale = 7.0
	maxScore        = 10.0
)

// importantFields are the fields whose presence drives confidence.
var importantFields = []func(*TokenMarketRecord) bool{
	func(r *TokenMarketRecord) bool { return r.Price != nil },
	func(r *TokenMarketRecord) bool { return r.Volume24h != nil },
	func(r *TokenMarketRecord) bool { return r.MarketCap != nil },
	func(r *TokenMarketRecord) bool { return r.Liquidity != nil },
	func(r *TokenMarketRecord) bool { return r.Name != "" },
	func(r *TokenMarketRecord) bool { return r.Symbol != "" },
	func(r *TokenMarketRecord) bool { return r.HoldersCount != nil },
}

// Confidence rates completeness and source coverage in [0, 1]. Duplicate
// entries in DataSource count as separate sources.
func Confidence(r *TokenMarketRecord) float64 {
	if r == nil {
		return 0
	}

	completed := 0
	for _, present := range importantFields {
		if present(r) {
			completed++
		}
	}

	score := math.Min(float64(len(r.DataSource))*sourceWeight, maxSourceScore) +
		float64(completed)/float64(len(importantFields))*fieldScoreScale

	return math.Min(score/maxScore, 1)
}
