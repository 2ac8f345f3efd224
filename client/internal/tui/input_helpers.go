package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// numCredentialFields is the number of fields handled by handleCredentialsInput.
const numCredentialFields = 2

// focusCredentials resets focus to the first of two credential fields.
func (m *model) focusCredentials(first, second *textinput.Model) {
	m.loginRegisterFocusedField = 0
	second.Blur()
	first.Focus()
}

func setCredentialFocus(idx int, input1, input2 *textinput.Model) {
	if idx == 0 {
		input2.Blur()
		input1.Focus()
	} else {
		input1.Blur()
		input2.Focus()
	}
}

// handleCredentialsKeys handles Tab, Shift+Tab and Enter in a two-field form.
// The bool result reports whether the key was consumed.
func (m *model) handleCredentialsKeys(
	keyMsg tea.KeyMsg,
	input1 *textinput.Model,
	input2 *textinput.Model,
	focusedFieldIdx *int,
	onEnterCmd func() (tea.Model, tea.Cmd),
) (tea.Model, tea.Cmd, bool) {
	switch keyMsg.String() {
	case keyTab:
		*focusedFieldIdx = (*focusedFieldIdx + 1) % numCredentialFields
		setCredentialFocus(*focusedFieldIdx, input1, input2)
		return m, textinput.Blink, true
	case keyShiftTab:
		*focusedFieldIdx = (*focusedFieldIdx + numCredentialFields - 1) % numCredentialFields
		setCredentialFocus(*focusedFieldIdx, input1, input2)
		return m, textinput.Blink, true
	case keyEnter:
		if *focusedFieldIdx == 0 {
			*focusedFieldIdx = 1
			setCredentialFocus(1, input1, input2)
			return m, textinput.Blink, true
		}
		model, cmd := onEnterCmd()
		return model, cmd, true
	default:
		return m, nil, false
	}
}

// handleCredentialsInput drives a two-field form: focus switching, submit on
// Enter in the second field, and Esc back to previousState.
func (m *model) handleCredentialsInput(
	msg tea.Msg,
	input1 *textinput.Model,
	input2 *textinput.Model,
	focusedFieldIdx *int,
	onEnterCmd func() (tea.Model, tea.Cmd),
	previousState screenState,
) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == keyEsc {
			m.state = previousState
			input1.Blur()
			input2.Blur()
			return m, tea.ClearScreen
		}

		newModel, keyCmd, handled := m.handleCredentialsKeys(keyMsg, input1, input2, focusedFieldIdx, onEnterCmd)
		if handled {
			return newModel, keyCmd
		}
	}

	activeInput := input1
	if *focusedFieldIdx == 1 {
		activeInput = input2
	}
	var cmd tea.Cmd
	*activeInput, cmd = activeInput.Update(msg)
	return m, cmd
}
