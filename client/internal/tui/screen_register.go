package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// updateRegisterScreen handles the registration form.
func (m *model) updateRegisterScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	registerAction := func() (tea.Model, tea.Cmd) {
		username := m.registerUsernameInput.Value()
		password := m.registerPasswordInput.Value()
		if username == "" || password == "" {
			return m.setStatusMessage("Username and password are required")
		}
		return m, m.makeRegisterCmd(username, password)
	}

	return m.handleCredentialsInput(
		msg,
		&m.registerUsernameInput,
		&m.registerPasswordInput,
		&m.loginRegisterFocusedField,
		registerAction,
		loginRegisterChoiceScreen,
	)
}

func (m *model) viewRegisterScreen() string {
	return m.viewCredentialsScreen(
		"Register",
		"Press Enter to register, Esc to go back",
		m.registerUsernameInput,
		m.registerPasswordInput,
	)
}
