package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// viewCredentialsScreen renders a username/password form.
func (m *model) viewCredentialsScreen(title, hint string, usernameInput, passwordInput textinput.Model) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	subtleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))

	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(usernameInput.View() + "\n")
	b.WriteString(passwordInput.View() + "\n\n")
	b.WriteString(subtleStyle.Render(hint) + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	return b.String()
}
