package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
)

var (
	Cyan    = lipgloss.Color("#00E5FF") // Primary highlight
	Magenta = lipgloss.Color("#FF1B6B") // Accent
	Yellow  = lipgloss.Color("#FFB500") // Warnings
	Green   = lipgloss.Color("#2AFFAA") // Positive change / low risk
	Red     = lipgloss.Color("#FF5555") // Negative change / high risk
	Blue    = lipgloss.Color("#3B82F6") // Info / links

	Base01 = lipgloss.Color("#6C7280") // Muted text
	Base2  = lipgloss.Color("#ECEFF4") // Primary text
	Base1  = lipgloss.Color("#B4BCC8") // Secondary text
)

// Palette provides a centralized color management
type Palette struct {
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Success       lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Info          lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color
}

// DefaultPalette returns the default color palette
func DefaultPalette() Palette {
	return Palette{
		Primary:       Cyan,
		Secondary:     Magenta,
		Success:       Green,
		Error:         Red,
		Warning:       Yellow,
		Info:          Blue,
		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,
	}
}

// RiskColor maps a risk level to green, yellow or red; unset is muted.
func (p Palette) RiskColor(level market.RiskLevel) lipgloss.Color {
	switch level {
	case market.RiskLow:
		return p.Success
	case market.RiskMedium:
		return p.Warning
	case market.RiskHigh:
		return p.Error
	default:
		return p.TextMuted
	}
}

// ChangeColor colors a percentage change by sign.
func (p Palette) ChangeColor(change float64) lipgloss.Color {
	switch {
	case change > 0:
		return p.Success
	case change < 0:
		return p.Error
	default:
		return p.TextMuted
	}
}
