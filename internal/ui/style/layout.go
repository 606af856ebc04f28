package style

import "github.com/charmbracelet/lipgloss"

var palette = DefaultPalette()

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Margin(0, 0, 1, 0)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(palette.TextSecondary).
			Width(18)

	ValueStyle = lipgloss.NewStyle().
			Foreground(palette.Text).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(palette.TextMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(palette.Error)

	HelpStyle = lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Margin(1, 0, 0, 0)
)

// Badge renders a short colored label.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(text)
}
