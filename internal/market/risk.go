// internal/market/risk.go
package market

// Liquidity thresholds in USD.
const (
	HighRiskLiquidity   = 10_000.0
	MediumRiskLiquidity = 100_000.0
	RugPullLiquidity    = 50_000.0
	RugPullMinHolders   = 100
)

// ScoreRisk classifies liquidity, rug-pull and concentration risk from the
// merged fields.
func ScoreRisk(r *TokenMarketRecord) {
	if r == nil {
		return
	}

	if r.Liquidity != nil {
		r.LiquidityRisk = liquidityRisk(*r.Liquidity)
	}
	r.RugPullRisk = rugPullRisk(r)
	// No holder distribution is collected, so concentration stays at the
	// neutral level.
	r.ConcentrationRisk = RiskMedium
}

func liquidityRisk(liquidity float64) RiskLevel {
	switch {
	case liquidity < HighRiskLiquidity:
		return RiskHigh
	case liquidity < MediumRiskLiquidity:
		return RiskMedium
	default:
		return RiskLow
	}
}

// rugPullScore counts the red flags on a record, 0..4.
func rugPullScore(r *TokenMarketRecord) int {
	score := 0
	if r.Website == "" {
		score++
	}
	if r.Twitter == "" && r.Telegram == "" {
		score++
	}
	if r.Liquidity != nil && *r.Liquidity < RugPullLiquidity {
		score++
	}
	if r.HoldersCount != nil && *r.HoldersCount < RugPullMinHolders {
		score++
	}
	return score
}

func rugPullRisk(r *TokenMarketRecord) RiskLevel {
	switch score := rugPullScore(r); {
	case score >= 3:
		return RiskHigh
	case score == 2:
		return RiskMedium
	default:
		return RiskLow
	}
}
