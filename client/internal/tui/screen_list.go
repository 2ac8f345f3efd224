package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/redactvault/client/internal/review"
	"github.com/maynagashev/redactvault/models"
)

// loadPage requests a page through the repository. The last request wins.
func (m *model) loadPage(page int) tea.Cmd {
	if m.repo == nil {
		return nil
	}
	return m.startLoading(fetchPageCmd(m.repo, page, m.pageSize))
}

// applyPage replaces the list with a fetched page.
func (m *model) applyPage(page *models.Page) {
	m.page = page
	items := make([]list.Item, len(page.Items))
	for i, e := range page.Items {
		items[i] = entryItem{entry: e}
	}
	cursor := m.entryList.Index()
	_ = m.entryList.SetItems(items)
	if cursor < len(items) {
		m.entryList.Select(cursor)
	}
	m.entryList.Title = fmt.Sprintf("Redaction vault: page %d of %d (%d entries)",
		page.Page, max(page.TotalPages(), 1), page.Total)
}

func (m *model) selectedEntry() (models.VaultEntry, bool) {
	item, ok := m.entryList.SelectedItem().(entryItem)
	if !ok {
		return models.VaultEntry{}, false
	}
	return item.entry, true
}

// updateEntryListScreen handles the entry list.
func (m *model) updateEntryListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit:
			return m, tea.Quit
		case keyEnter:
			return m.openReview()
		case "a":
			return m.archiveSelected()
		case "n":
			return m.changePage(1)
		case "p":
			return m.changePage(-1)
		case "r":
			page, _ := m.repo.Position()
			return m, m.loadPage(page)
		case "s":
			m.state = statsScreen
			m.stats = nil
			return m, m.startLoading(loadStatsCmd(m.repo))
		case "L":
			return m.logout()
		}
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

func (m *model) openReview() (tea.Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok {
		return m, nil
	}
	if err := m.controller.Open(entry); err != nil {
		return m.setErrorStatus("Cannot open entry: ", err)
	}
	m.notesInput.Reset()
	m.editNotes = false
	m.state = reviewScreen
	slog.Info("review dialog opened", "entry", entry.ID)
	return m, tea.ClearScreen
}

func (m *model) archiveSelected() (tea.Model, tea.Cmd) {
	entry, ok := m.selectedEntry()
	if !ok {
		return m, nil
	}
	if !review.ActionsFor(entry).Archive {
		return m.setStatusMessage(fmt.Sprintf("Entry #%d cannot be archived", entry.ID))
	}
	cmd, err := m.controller.Archive(entry.ID)
	if err != nil {
		return m.notify(m.controller.Reject(review.CommandArchive, err))
	}
	return m, m.startLoading(runReviewCmd(m.controller, cmd))
}

func (m *model) changePage(delta int) (tea.Model, tea.Cmd) {
	current, _ := m.repo.Position()
	target := current + delta
	if target < 1 {
		return m, nil
	}
	if m.page != nil && target > m.page.TotalPages() {
		return m, nil
	}
	return m, m.loadPage(target)
}

func (m *model) logout() (tea.Model, tea.Cmd) {
	if m.commandRunning() {
		return m.setStatusMessage("Wait for the running command to finish before logging out")
	}
	sess, err := m.provider.Logout()
	if err != nil {
		return m.setErrorStatus("Logout failed: ", err)
	}
	m.bindSession(sess)
	m.state = loginRegisterChoiceScreen
	return m.setStatusMessage("Logged out")
}

func (m *model) viewEntryListScreen() string {
	if m.page == nil {
		if m.loading {
			return "Loading entries..."
		}
		return "No entries loaded. Press r to retry."
	}
	if len(m.page.Items) == 0 {
		return "The vault is empty."
	}

	var b strings.Builder
	b.WriteString(m.entryList.View())
	if entry, ok := m.selectedEntry(); ok {
		if anomalies := entry.Anomalies(); len(anomalies) > 0 {
			warn := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
			b.WriteString("\n" + warn.Render("! data anomaly: "+strings.Join(anomalies, "; ")))
		}
	}
	return b.String()
}
