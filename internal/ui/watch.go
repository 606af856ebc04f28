package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/ui/component"
	"github.com/rovshanmuradov/solana-market-collector/internal/ui/style"
)

// FetchFunc returns a fresh record for the watched token.
type FetchFunc func(ctx context.Context) *market.TokenMarketRecord

type recordMsg struct {
	record *market.TokenMarketRecord
}

type tickMsg time.Time

// WatchModel polls one token and redraws it on every answer.
type WatchModel struct {
	ctx      context.Context
	fetch    FetchFunc
	interval time.Duration
	keys     KeyMap

	spinner spinner.Model
	history *component.Sparkline
	record  *market.TokenMarketRecord
	loading bool
	details bool
	polls   int
}

// NewWatchModel creates the model. ctx bounds every fetch.
func NewWatchModel(ctx context.Context, fetch FetchFunc, interval time.Duration) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(style.DefaultPalette().Primary)

	return WatchModel{
		ctx:      ctx,
		fetch:    fetch,
		interval: interval,
		keys:     DefaultKeyMap(),
		spinner:  sp,
		history:  component.NewSparkline(30),
		loading:  true,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m WatchModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		return recordMsg{record: m.fetch(m.ctx)}
	}
}

func (m WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Details):
			m.details = !m.details
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
		}

	case recordMsg:
		m.loading = false
		m.polls++
		m.record = msg.record
		if msg.record != nil && msg.record.Price != nil {
			m.history.Push(*msg.record.Price)
		}
		return m, m.tickCmd()

	case tickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchCmd())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) View() string {
	status := style.MutedStyle.Render("next refresh in " + m.interval.String())
	if m.loading {
		status = m.spinner.View() + " collecting…"
	}

	body := style.MutedStyle.Render("waiting for first answer")
	if m.record != nil {
		body = RenderRecord(m.record, m.details)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		"price "+m.history.View(),
		status,
		style.HelpStyle.Render(m.keys.helpLine()),
	)
}
