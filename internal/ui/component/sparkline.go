package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/solana-market-collector/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a fixed-width mini chart of the most recent prices.
type Sparkline struct {
	data  []float64
	width int
	style lipgloss.Style
}

// NewSparkline creates an empty sparkline holding at most width points.
func NewSparkline(width int) *Sparkline {
	if width < 1 {
		width = 1
	}
	return &Sparkline{
		width: width,
		style: lipgloss.NewStyle().Foreground(style.DefaultPalette().Primary),
	}
}

// Push appends a point and drops the oldest beyond width.
func (s *Sparkline) Push(value float64) {
	s.data = append(s.data, value)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
}

// Len returns the number of points held.
func (s *Sparkline) Len() int { return len(s.data) }

// View renders the chart followed by a trend arrow.
func (s *Sparkline) View() string {
	return s.style.Render(s.blocks()) + " " + s.trend()
}

func (s *Sparkline) blocks() string {
	if len(s.data) == 0 {
		return strings.Repeat(string(sparkChars[0]), s.width)
	}

	lo, hi := s.data[0], s.data[0]
	for _, v := range s.data {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range s.data {
		idx := len(sparkChars) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		b.WriteRune(sparkChars[idx])
	}
	for i := len(s.data); i < s.width; i++ {
		b.WriteRune(' ')
	}
	return b.String()
}

func (s *Sparkline) trend() string {
	p := style.DefaultPalette()
	if len(s.data) < 2 {
		return style.Badge("→", p.TextMuted)
	}
	last, prev := s.data[len(s.data)-1], s.data[len(s.data)-2]
	switch {
	case last > prev:
		return style.Badge("↗", p.Success)
	case last < prev:
		return style.Badge("↘", p.Error)
	default:
		return style.Badge("→", p.TextMuted)
	}
}
