package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// updateLoginRegisterChoiceScreen handles the login/register choice.
func (m *model) updateLoginRegisterChoiceScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "l", "L":
		m.state = loginScreen
		m.err = nil
		m.focusCredentials(&m.loginUsernameInput, &m.loginPasswordInput)
		return m, textinput.Blink
	case "r", "R":
		m.state = registerScreen
		m.err = nil
		m.focusCredentials(&m.registerUsernameInput, &m.registerPasswordInput)
		return m, textinput.Blink
	case keyQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) viewLoginRegisterChoiceScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Redaction vault review") + "\n\n")
	b.WriteString("You are not logged in.\n\n")
	b.WriteString("(l) Log in\n")
	b.WriteString("(r) Register\n")
	return b.String()
}
