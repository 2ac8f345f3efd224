package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/repository"
	"github.com/maynagashev/redactvault/client/internal/review"
	"github.com/maynagashev/redactvault/client/internal/session"
)

const (
	initPasswordCharLimit = 156
	initUserCharLimit     = 128
	initUserWidth         = 30
	initNotesCharLimit    = 1000
	initNotesWidth        = 60

	docStyleMarginVertical   = 1
	docStyleMarginHorizontal = 2
)

// newModel builds the initial model. An authenticated session starts on the
// entry list, otherwise on the login/register choice.
func newModel(
	apiClient api.Client,
	provider *session.Provider,
	sess session.Session,
	pageSize int,
	debugMode bool,
) *model {
	if pageSize <= 0 {
		pageSize = repository.DefaultPageSize
	}
	loginUser, loginPass := initCredentialInputs()
	regUser, regPass := initCredentialInputs()

	m := &model{
		state:                 loginRegisterChoiceScreen,
		debugMode:             debugMode,
		pageSize:              pageSize,
		apiClient:             apiClient,
		provider:              provider,
		entryList:             initEntryList(),
		notesInput:            initNotesInput(),
		spinner:               initSpinner(),
		loginUsernameInput:    loginUser,
		loginPasswordInput:    loginPass,
		registerUsernameInput: regUser,
		registerPasswordInput: regPass,
		helpTextMap:           initHelpTextMap(),
		docStyle:              lipgloss.NewStyle().Margin(docStyleMarginVertical, docStyleMarginHorizontal),
	}
	m.bindSession(sess)
	if sess.Authenticated() {
		m.state = entryListScreen
	}
	return m
}

// bindSession makes sess the session every later call uses. The repository
// and controller are rebuilt so nothing keeps the previous credential.
func (m *model) bindSession(sess session.Session) {
	m.sess = sess
	m.page = nil
	m.loading = false
	m.refreshing = false
	m.stats = nil
	_ = m.entryList.SetItems(nil)
	if !sess.Authenticated() {
		m.repo = nil
		m.controller = nil
		return
	}
	m.repo = repository.New(m.apiClient.WithCredentials(sess), m.pageSize)
	m.controller = review.NewController(m.repo)
}

func initCredentialInputs() (textinput.Model, textinput.Model) {
	user := textinput.New()
	user.Placeholder = "Username"
	user.CharLimit = initUserCharLimit
	user.Width = initUserWidth

	pass := textinput.New()
	pass.Placeholder = "Password"
	pass.CharLimit = initPasswordCharLimit
	pass.Width = initUserWidth
	pass.EchoMode = textinput.EchoPassword
	return user, pass
}

func initNotesInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Notes (optional)"
	ti.CharLimit = initNotesCharLimit
	ti.Width = initNotesWidth
	return ti
}

func initSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return s
}

// initEntryList creates the list showing one server page of entries.
func initEntryList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(lipgloss.Color("252"))
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(lipgloss.Color("245"))
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("212")).
		BorderLeftForeground(lipgloss.Color("212"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("240")).
		BorderLeftForeground(lipgloss.Color("212"))

	l := list.New([]list.Item{}, delegate, defaultListWidth, defaultListHeight)
	l.Title = "Redaction vault"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	// server pagination: a local filter would only see one page
	l.SetFilteringEnabled(false)
	l.Styles.Title = list.DefaultStyles().Title.Bold(true)
	return l
}

func initHelpTextMap() map[screenState]string {
	return map[screenState]string{
		loginRegisterChoiceScreen: "(l) login | (r) register | (q) quit",
		loginScreen:               "(tab) next field | (enter) login | (esc) back",
		registerScreen:            "(tab) next field | (enter) register | (esc) back",
		entryListScreen: "(enter) review | (a) archive | (n/p) next/prev page | (r) refresh | " +
			"(s) stats | (L) logout | (q) quit",
		reviewScreen: "(v) compare | (o) show original | (t) correct/incorrect | (e) notes | " +
			"(f) submit feedback | (R) revert | (esc) close",
		statsScreen: "(r) reload | (esc) back",
	}
}
