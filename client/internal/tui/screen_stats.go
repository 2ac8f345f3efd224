package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const percent = 100

func (m *model) updateStatsScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case keyEsc, keyBack:
		m.state = entryListScreen
		return m, tea.ClearScreen
	case "r":
		return m, m.startLoading(loadStatsCmd(m.repo))
	case keyQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) viewStatsScreen() string {
	if m.stats == nil {
		if m.loading {
			return "Loading statistics..."
		}
		return "Statistics unavailable. Press r to retry."
	}
	s := m.stats
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Vault statistics") + "\n\n")
	fmt.Fprintf(&b, "Entries:            %d\n", s.TotalEntries)
	fmt.Fprintf(&b, "Redactions:         %d\n", s.TotalRedactions)
	fmt.Fprintf(&b, "Positive feedback:  %d\n", s.PositiveFeedback)
	fmt.Fprintf(&b, "Feedback ratio:     %.0f%%\n", s.FeedbackRatio*percent)
	fmt.Fprintf(&b, "Avg processing:     %s\n", s.AvgProcessingTime)
	return b.String()
}
