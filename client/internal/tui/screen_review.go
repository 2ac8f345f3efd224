package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/redactvault/client/internal/review"
	"github.com/maynagashev/redactvault/models"
)

const (
	textBoxWidth    = 48
	compareBoxWidth = 40
)

var (
	dialogTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	anomalyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	textBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	originalBoxStyle = textBoxStyle.BorderForeground(lipgloss.Color("214"))
	confirmBoxStyle  = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("160")).Padding(1, 2)
)

// dialogEntry returns the freshest copy of the entry the dialog is open for.
func (m *model) dialogEntry() (models.VaultEntry, bool) {
	id, ok := m.controller.Session().Target()
	if !ok {
		return models.VaultEntry{}, false
	}
	return m.repo.Lookup(id)
}

// updateReviewScreen handles the review dialog.
func (m *model) updateReviewScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.editNotes {
			var cmd tea.Cmd
			m.notesInput, cmd = m.notesInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.editNotes {
		return m.handleNotesInput(keyMsg)
	}
	if m.controller.Session().State() == review.StateRevertConfirm {
		return m.handleRevertConfirm(keyMsg)
	}
	return m.handleReviewKeys(keyMsg)
}

func (m *model) handleReviewKeys(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entry, _ := m.dialogEntry()
	actions := review.ActionsFor(entry)

	var err error
	switch keyMsg.String() {
	case keyEsc, keyBack:
		if err = m.controller.Close(); err == nil {
			m.state = entryListScreen
			m.notesInput.Reset()
			return m, tea.ClearScreen
		}
	case "v":
		err = m.controller.ToggleViewMode()
	case "o":
		err = m.controller.ToggleShowOriginal()
	case "t":
		draft := m.controller.Session().Draft()
		err = m.controller.SetFeedbackPositive(!draft.Feedback.IsPositive)
	case "e":
		if !actions.Feedback {
			return m.setStatusMessage("Feedback is not available for this entry")
		}
		if m.controller.Session().Busy() {
			err = review.ErrBusy
			break
		}
		m.editNotes = true
		m.notesInput.SetValue(m.controller.Session().Draft().Feedback.Notes)
		m.notesInput.Focus()
		return m, textinput.Blink
	case "f":
		return m.submitFeedback(actions)
	case "R":
		if !actions.Revert {
			return m.setStatusMessage("Entry is already reverted")
		}
		err = m.controller.RequestRevert()
	}
	if err != nil {
		return m.setErrorStatus("", err)
	}
	return m, nil
}

func (m *model) submitFeedback(actions review.Actions) (tea.Model, tea.Cmd) {
	if !actions.Feedback {
		return m.setStatusMessage("Feedback is not available for this entry")
	}
	cmd, err := m.controller.SubmitFeedback(m.sess.Subject())
	if err != nil {
		return m.notify(m.controller.Reject(review.CommandFeedback, err))
	}
	slog.Info("submitting feedback", "entry", cmd.EntryID)
	return m, m.startLoading(runReviewCmd(m.controller, cmd))
}

func (m *model) handleNotesInput(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case keyEnter:
		m.editNotes = false
		m.notesInput.Blur()
		if err := m.controller.SetNotes(m.notesInput.Value()); err != nil {
			return m.setErrorStatus("", err)
		}
		return m, nil
	case keyEsc:
		m.editNotes = false
		m.notesInput.Blur()
		m.notesInput.SetValue(m.controller.Session().Draft().Feedback.Notes)
		return m, nil
	}
	var cmd tea.Cmd
	m.notesInput, cmd = m.notesInput.Update(keyMsg)
	return m, cmd
}

// handleRevertConfirm handles the second phase of a revert.
func (m *model) handleRevertConfirm(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case keyEnter, "y":
		cmd, err := m.controller.ConfirmRevert()
		if err != nil {
			return m.notify(m.controller.Reject(review.CommandRevert, err))
		}
		slog.Info("reverting entry", "entry", cmd.EntryID)
		return m, m.startLoading(runReviewCmd(m.controller, cmd))
	case keyEsc, "n", keyBack:
		if err := m.controller.CancelRevert(); err != nil {
			return m.setErrorStatus("", err)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) viewReviewScreen() string {
	entry, ok := m.dialogEntry()
	if !ok {
		return "Loading the entry, it is no longer on the current page. Press esc to close."
	}
	sess := m.controller.Session()
	if sess.State() == review.StateRevertConfirm {
		return m.viewRevertConfirm(entry)
	}
	draft := sess.Draft()

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render(fmt.Sprintf("Entry #%d", entry.ID)) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("conversation %s | message %s | user %s | %s",
		entry.ConversationID, entry.MessageID, entry.UserID, formatTime(entry.CreatedAt))) + "\n")
	b.WriteString(fmt.Sprintf("Confidence %s | %d redactions | %s | processed in %.2fs | %s\n",
		formatConfidence(entry), entry.RedactionCount, entry.MessageType, entry.ProcessingTime,
		review.LifecycleOf(entry).Label()))
	if anomalies := entry.Anomalies(); len(anomalies) > 0 {
		b.WriteString(anomalyStyle.Render("! data anomaly: "+strings.Join(anomalies, "; ")) + "\n")
	}
	b.WriteString("\n")

	if draft.ViewMode == review.ViewCompare {
		left := labelStyle.Render("Original") + "\n" +
			originalBoxStyle.Width(compareBoxWidth).Render(entry.OriginalMessage)
		right := labelStyle.Render("Redacted") + "\n" +
			textBoxStyle.Width(compareBoxWidth).Render(entry.RedactedMessage)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	} else if draft.ShowOriginal {
		b.WriteString(labelStyle.Render("Original") + "\n")
		b.WriteString(originalBoxStyle.Width(textBoxWidth).Render(entry.OriginalMessage))
	} else {
		b.WriteString(labelStyle.Render("Redacted") + "\n")
		b.WriteString(textBoxStyle.Width(textBoxWidth).Render(entry.RedactedMessage))
	}
	b.WriteString("\n\n")

	if fb := entry.Feedback; fb != nil {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Last review: %s by %s at %s",
			judgment(fb.IsPositive), fb.ReviewedBy, formatTime(fb.ReviewedAt))) + "\n")
		if fb.FeedbackNotes != "" {
			b.WriteString(labelStyle.Render("  "+fb.FeedbackNotes) + "\n")
		}
	}

	if review.ActionsFor(entry).Feedback {
		b.WriteString("Redaction is: " + judgment(draft.Feedback.IsPositive) + "\n")
		if m.editNotes {
			b.WriteString("Notes: " + m.notesInput.View() + "\n")
		} else {
			notes := draft.Feedback.Notes
			if notes == "" {
				notes = "(none)"
			}
			b.WriteString("Notes: " + notes + "\n")
		}
	}
	return b.String()
}

func (m *model) viewRevertConfirm(entry models.VaultEntry) string {
	text := fmt.Sprintf(
		"Revert entry #%d?\n\n"+
			"The original message will be restored in conversation %s.\n"+
			"This cannot be undone.\n\n"+
			"Enter - confirm, Esc - cancel",
		entry.ID, entry.ConversationID,
	)
	return confirmBoxStyle.Render(text)
}

func judgment(positive bool) string {
	if positive {
		return "correct"
	}
	return "incorrect"
}
