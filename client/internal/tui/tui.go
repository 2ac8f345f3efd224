// Package tui is the terminal interface reviewers use to audit vault entries.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/review"
	"github.com/maynagashev/redactvault/client/internal/session"
)

const helpStatusHeightOffset = 3

// Config holds what Start needs to run the TUI.
type Config struct {
	ServerURL   string
	SessionFile string
	PageSize    int
	Timeout     time.Duration
	Debug       bool
}

var statusStyles = map[review.Level]lipgloss.Style{
	review.LevelInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	review.LevelSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	review.LevelWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	review.LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")),
	review.LevelCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
}

// Init refreshes a restored session before the first page is loaded.
func (m *model) Init() tea.Cmd {
	if m.repo == nil {
		return textinput.Blink
	}
	m.refreshing = true
	refresher := m.apiClient.WithCredentials(m.sess)
	return m.startLoading(refreshSessionCmd(m.provider, m.sess, refresher, m.repo))
}

// notify shows a notification in the status line and schedules its removal.
func (m *model) notify(n review.Notification) (tea.Model, tea.Cmd) {
	if n.Empty() {
		return m, nil
	}
	m.statusID++
	m.status = n.Message
	m.statusLevel = n.Level
	ttl := n.TTL
	if ttl <= 0 {
		ttl = review.DefaultTTL
	}
	return m, clearStatusCmd(m.statusID, ttl)
}

// setStatusMessage shows an informational status.
func (m *model) setStatusMessage(status string) (tea.Model, tea.Cmd) {
	return m.notify(review.Notification{Level: review.LevelInfo, Message: status, TTL: review.DefaultTTL})
}

// setErrorStatus shows err in the status line.
func (m *model) setErrorStatus(prefix string, err error) (tea.Model, tea.Cmd) {
	return m.notify(review.Notification{
		Level:   review.LevelError,
		Message: prefix + review.Describe(err),
		TTL:     review.DefaultTTL,
	})
}

// getMainContentView returns the content for the current screen.
func (m *model) getMainContentView() string {
	switch m.state {
	case loginRegisterChoiceScreen:
		return m.viewLoginRegisterChoiceScreen()
	case loginScreen:
		return m.viewLoginScreen()
	case registerScreen:
		return m.viewRegisterScreen()
	case entryListScreen:
		return m.viewEntryListScreen()
	case reviewScreen:
		return m.viewReviewScreen()
	case statsScreen:
		return m.viewStatsScreen()
	default:
		return "Unknown screen"
	}
}

func (m *model) getDebugInfoString() string {
	var b strings.Builder
	fmt.Fprintf(&b, " [Screen: %s]\n", m.state)
	fmt.Fprintf(&b, " [Subject: %s]\n", m.sess.Subject())
	if m.controller != nil {
		s := m.controller.Session()
		fmt.Fprintf(&b, " [Dialog: %s busy=%t draft=%+v]\n", s.State(), s.Busy(), s.Draft())
	}
	if m.repo != nil {
		page, size := m.repo.Position()
		fmt.Fprintf(&b, " [Page: %d size=%d]\n", page, size)
	}
	return b.String()
}

// View renders the UI.
func (m *model) View() string {
	mainContent := m.getMainContentView()
	help, ok := m.helpTextMap[m.state]
	if !ok {
		help = "Unknown state"
	}
	if m.state == reviewScreen && m.controller != nil &&
		m.controller.Session().State() == review.StateRevertConfirm {
		help = "(enter/y) confirm revert | (esc/n) cancel"
	}
	if m.editNotes {
		help = "(enter) done | (esc) discard changes"
	}

	var footer strings.Builder
	if m.loading {
		footer.WriteString("\n" + m.spinner.View() + " working...")
	}
	if m.status != "" {
		footer.WriteString("\n" + statusStyles[m.statusLevel].Render(m.status))
	}
	if m.debugMode {
		footer.WriteString("\n\n---\nDebug:\n")
		footer.WriteString(m.getDebugInfoString())
	}

	return fmt.Sprintf("%s\n%s%s", m.docStyle.Render(mainContent), help, footer.String())
}

// Start runs the TUI until the reviewer quits.
func Start(cfg Config) error {
	apiClient := api.NewHTTPClient(cfg.ServerURL, cfg.Timeout, nil)
	slog.Info("API client initialized", "baseURL", cfg.ServerURL, "timeout", cfg.Timeout)

	var store *session.Store
	if cfg.SessionFile != "" {
		store = session.NewStore(cfg.SessionFile)
	}
	provider := session.NewProvider(apiClient, store)
	sess := provider.Restore()

	m := newModel(apiClient, provider, sess, cfg.PageSize, cfg.Debug)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("TUI failed", "error", err)
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
