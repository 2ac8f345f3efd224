package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// updateLoginScreen handles the login form.
func (m *model) updateLoginScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	loginAction := func() (tea.Model, tea.Cmd) {
		if m.commandRunning() {
			return m.setStatusMessage("Wait for the running command to finish before logging in")
		}
		username := m.loginUsernameInput.Value()
		password := m.loginPasswordInput.Value()
		cmd := m.makeLoginCmd(username, password)
		_, statusCmd := m.setStatusMessage("Logging in...")
		return m, tea.Batch(m.startLoading(cmd), statusCmd)
	}

	return m.handleCredentialsInput(
		msg,
		&m.loginUsernameInput,
		&m.loginPasswordInput,
		&m.loginRegisterFocusedField,
		loginAction,
		loginRegisterChoiceScreen,
	)
}

// handleLoginSuccess binds the new session and loads the first page.
func (m *model) handleLoginSuccess(msg loginSuccessMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	m.bindSession(msg.sess)
	m.loginPasswordInput.Reset()
	m.loginUsernameInput.Blur()
	m.loginPasswordInput.Blur()
	m.state = entryListScreen

	_, statusCmd := m.setStatusMessage("Logged in as " + msg.sess.Subject())
	return m, tea.Batch(statusCmd, m.loadPage(1))
}

func (m *model) viewLoginScreen() string {
	return m.viewCredentialsScreen(
		"Log in",
		"Press Enter to log in, Esc to go back",
		m.loginUsernameInput,
		m.loginPasswordInput,
	)
}
