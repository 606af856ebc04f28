package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/solana-market-collector/internal/logger"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/ui/style"
)

const unset = "—"

// RenderRecord draws a record as a labelled panel. details adds supply,
// pool, social and failure rows.
func RenderRecord(rec *market.TokenMarketRecord, details bool) string {
	if rec == nil {
		return style.MutedStyle.Render("no data")
	}
	p := style.DefaultPalette()

	title := rec.Symbol
	if title == "" {
		title = logger.ShortenAddress(rec.Address)
	}
	if rec.Name != "" {
		title += " · " + rec.Name
	}

	rows := []string{
		style.TitleStyle.Render(title),
		row("Address", rec.Address),
		row("Price", usd(rec.Price)),
		row("Change 1h/24h", change(rec.PriceChange1h)+" / "+change(rec.PriceChange24h)),
		row("Volume 24h", usd(rec.Volume24h)),
		row("Liquidity", usd(rec.Liquidity)),
		row("Market cap", usd(rec.MarketCap)),
		row("Holders", count(rec.HoldersCount)),
		row("Volatility", number(rec.Volatility)),
		row("Risk", fmt.Sprintf("liquidity %s  rug-pull %s  concentration %s",
			risk(rec.LiquidityRisk), risk(rec.RugPullRisk), risk(rec.ConcentrationRisk))),
		row("Confidence", style.Badge(strconv.FormatFloat(rec.Confidence*100, 'f', 0, 64)+"%", confidenceColor(p, rec.Confidence))),
		row("Sources", orUnset(strings.Join(rec.DataSource, ", "))),
	}

	if details {
		rows = append(rows,
			row("FDV", usd(rec.FullyDilutedValuation)),
			row("Total supply", number(rec.TotalSupply)),
			row("Pool", orUnset(strings.TrimSpace(rec.DexName+" "+logger.ShortenAddress(rec.PoolAddress)))),
			row("Mint authority", orUnset(rec.MintAuthority)),
			row("Website", orUnset(rec.Website)),
			row("Twitter", orUnset(rec.Twitter)),
		)
		for _, f := range rec.Failures {
			rows = append(rows, row("Failed", style.ErrorStyle.Render(f.Source+": "+f.Reason)))
		}
	}

	rows = append(rows, style.MutedStyle.Render("updated "+rec.LastUpdated.Format("15:04:05")))
	return style.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, style.LabelStyle.Render(label), style.ValueStyle.Render(value))
}

func usd(v *float64) string {
	if v == nil {
		return unset
	}
	switch a := *v; {
	case a >= 1e9:
		return fmt.Sprintf("$%.2fB", a/1e9)
	case a >= 1e6:
		return fmt.Sprintf("$%.2fM", a/1e6)
	case a >= 1e3:
		return fmt.Sprintf("$%.2fK", a/1e3)
	case a >= 1:
		return fmt.Sprintf("$%.4f", a)
	default:
		return "$" + strconv.FormatFloat(a, 'g', 4, 64)
	}
}

func change(v *float64) string {
	if v == nil {
		return unset
	}
	return style.Badge(fmt.Sprintf("%+.2f%%", *v), style.DefaultPalette().ChangeColor(*v))
}

func number(v *float64) string {
	if v == nil {
		return unset
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func count(v *int64) string {
	if v == nil {
		return unset
	}
	return strconv.FormatInt(*v, 10)
}

func risk(level market.RiskLevel) string {
	if level == "" {
		return style.MutedStyle.Render(unset)
	}
	return style.Badge(string(level), style.DefaultPalette().RiskColor(level))
}

func confidenceColor(p style.Palette, c float64) lipgloss.Color {
	switch {
	case c >= 0.7:
		return p.Success
	case c >= 0.4:
		return p.Warning
	default:
		return p.Error
	}
}

func orUnset(s string) string {
	if s == "" {
		return unset
	}
	return s
}

func joinDots(parts []string) string {
	return strings.Join(parts, " • ")
}
