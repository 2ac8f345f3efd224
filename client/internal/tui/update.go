package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/repository"
	"github.com/maynagashev/redactvault/client/internal/review"
)

// Update handles incoming messages.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := m.docStyle.GetFrameSize()
		m.entryList.SetSize(msg.Width-h, msg.Height-v-helpStatusHeightOffset)
		m.notesInput.Width = msg.Width - h - passwordInputOffset
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginSuccessMsg:
		return m.handleLoginSuccess(msg)
	case loginErrorMsg:
		m.err = msg.err
		return m.setErrorStatus("Login failed: ", msg.err)
	case registerSuccessMsg:
		m.err = nil
		m.state = loginScreen
		m.loginUsernameInput.SetValue(m.registerUsernameInput.Value())
		m.loginPasswordInput.Reset()
		m.focusCredentials(&m.loginUsernameInput, &m.loginPasswordInput)
		return m.setStatusMessage("Registered, you can log in now")
	case registerErrorMsg:
		m.err = msg.err
		return m.setErrorStatus("Registration failed: ", msg.err)

	case pageLoadedMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		m.loading = false
		m.applyPage(msg.page)
		return m, m.followDialogEntry()
	case pageStaleMsg:
		return m, nil
	case pageErrorMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		m.loading = false
		return m.handleAuthAware("Loading entries failed: ", msg.err)

	case commandDoneMsg:
		if msg.controller == nil || msg.controller != m.controller {
			slog.Debug("dropping command result from a previous session", "command", msg.outcome.Kind.String())
			return m, nil
		}
		return m.handleCommandDone(msg)

	case sessionRefreshedMsg, sessionRefreshErrorMsg:
		return m.handleSessionRefresh(msg)

	case entryFetchedMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		slog.Debug("entry loaded outside the current page", "entry", msg.entry.ID)
		return m, nil
	case entryFetchErrorMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		return m.handleAuthAware(fmt.Sprintf("Loading entry #%d failed: ", msg.id), msg.err)

	case statsLoadedMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		m.loading = false
		m.stats = msg.stats
		return m, nil
	case statsErrorMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		m.loading = false
		return m.handleAuthAware("Loading stats failed: ", msg.err)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.state {
	case loginRegisterChoiceScreen:
		return m.updateLoginRegisterChoiceScreen(msg)
	case loginScreen:
		return m.updateLoginScreen(msg)
	case registerScreen:
		return m.updateRegisterScreen(msg)
	case entryListScreen:
		return m.updateEntryListScreen(msg)
	case reviewScreen:
		return m.updateReviewScreen(msg)
	case statsScreen:
		return m.updateStatsScreen(msg)
	default:
		slog.Error("update in unknown screen", "screen", m.state.String())
		return m, nil
	}
}

// handleCommandDone applies a finished review command.
func (m *model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	n := m.controller.Complete(msg.outcome)
	if page := msg.outcome.Result.Page; page != nil {
		m.applyPage(page)
	}
	if m.state == reviewScreen && m.controller.Session().State() == review.StateClosed {
		m.state = entryListScreen
		m.editNotes = false
		m.notesInput.Reset()
	}
	_, notifyCmd := m.notify(n)
	return m, tea.Batch(notifyCmd, m.followDialogEntry())
}

// handleSessionRefresh binds the refreshed session and loads the page. A
// rejected credential sends the reviewer to login; any other failure keeps
// the restored session.
func (m *model) handleSessionRefresh(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionRefreshedMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		m.refreshing = false
		page, _ := m.repo.Position()
		m.bindSession(msg.sess)
		if m.state == statsScreen {
			m.state = entryListScreen
		}
		return m, m.loadPage(page)
	case sessionRefreshErrorMsg:
		if m.staleRepo(msg.repo) {
			return m, nil
		}
		m.refreshing = false
		m.loading = false
		if errors.Is(msg.err, api.ErrAuth) {
			return m.handleAuthAware("Session expired: ", msg.err)
		}
		page, _ := m.repo.Position()
		return m, m.loadPage(page)
	}
	return m, nil
}

// followDialogEntry fetches the entry the open dialog shows when no page
// holds it anymore.
func (m *model) followDialogEntry() tea.Cmd {
	if m.state != reviewScreen || m.controller == nil || m.repo == nil {
		return nil
	}
	id, ok := m.controller.Session().Target()
	if !ok {
		return nil
	}
	if _, ok := m.repo.Lookup(id); ok {
		return nil
	}
	return fetchEntryCmd(m.repo, id)
}

// handleAuthAware reports a load failure. A rejected credential sends the
// reviewer back to login.
func (m *model) handleAuthAware(prefix string, err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, api.ErrAuth) {
		m.state = loginRegisterChoiceScreen
		return m.notify(review.Notification{
			Level:   review.LevelError,
			Message: fmt.Sprintf("%s%s (l to log in)", prefix, review.Describe(err)),
			TTL:     review.DefaultTTL,
		})
	}
	return m.setErrorStatus(prefix, err)
}

// staleRepo reports whether a response was issued against a repository the
// model no longer uses.
func (m *model) staleRepo(repo *repository.Repository) bool {
	if repo != nil && repo == m.repo {
		return false
	}
	slog.Debug("dropping response from a previous session")
	return true
}

// commandRunning reports whether a review command or the session refresh is
// still in flight.
func (m *model) commandRunning() bool {
	return m.refreshing || (m.controller != nil && m.controller.Session().Busy())
}

// startLoading shows the spinner while cmd runs.
func (m *model) startLoading(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	return tea.Batch(cmd, m.spinner.Tick)
}
