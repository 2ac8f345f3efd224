package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/repository"
	"github.com/maynagashev/redactvault/client/internal/review"
	"github.com/maynagashev/redactvault/client/internal/session"
	"github.com/maynagashev/redactvault/models"
)

// screenState is the screen currently shown.
type screenState int

const (
	loginRegisterChoiceScreen screenState = iota
	loginScreen
	registerScreen
	entryListScreen
	reviewScreen // review dialog, including the revert confirmation
	statsScreen
)

func (s screenState) String() string {
	switch s {
	case loginRegisterChoiceScreen:
		return "loginRegisterChoice"
	case loginScreen:
		return "login"
	case registerScreen:
		return "register"
	case entryListScreen:
		return "entryList"
	case reviewScreen:
		return "review"
	case statsScreen:
		return "stats"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

const (
	defaultListWidth    = 100
	defaultListHeight   = 24
	passwordInputOffset = 4
	snippetLength       = 60

	keyEnter    = "enter"
	keyQuit     = "q"
	keyBack     = "b"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
)

// entryItem adapts a vault entry to list.Item.
type entryItem struct {
	entry models.VaultEntry
}

func (i entryItem) Title() string {
	return fmt.Sprintf("#%d %s", i.entry.ID, truncate(oneLine(i.entry.RedactedMessage), snippetLength))
}

func (i entryItem) Description() string {
	parts := []string{
		"confidence " + formatConfidence(i.entry),
		fmt.Sprintf("%d redactions", i.entry.RedactionCount),
		review.LifecycleOf(i.entry).Label(),
	}
	if i.entry.MessageType != "" {
		parts = append(parts, i.entry.MessageType)
	}
	if i.entry.Feedback != nil {
		parts = append(parts, "by "+i.entry.Feedback.ReviewedBy)
	}
	return strings.Join(parts, " | ")
}

func (i entryItem) FilterValue() string { return i.entry.RedactedMessage }

// Messages produced by commands.
type (
	loginSuccessMsg struct {
		sess session.Session
	}

	loginErrorMsg struct {
		err error
	}

	registerSuccessMsg struct{}

	registerErrorMsg struct {
		err error
	}

	// Session-bound messages carry the repository or controller that issued
	// them. Update drops them once the model is bound to another session.
	pageLoadedMsg struct {
		repo *repository.Repository
		page *models.Page
	}

	pageErrorMsg struct {
		repo *repository.Repository
		err  error
	}

	// pageStaleMsg is a page response superseded by a newer request.
	pageStaleMsg struct{}

	commandDoneMsg struct {
		controller *review.Controller
		outcome    review.Outcome
	}

	statsLoadedMsg struct {
		repo  *repository.Repository
		stats *models.Stats
	}

	statsErrorMsg struct {
		repo *repository.Repository
		err  error
	}

	sessionRefreshedMsg struct {
		repo *repository.Repository
		sess session.Session
	}

	sessionRefreshErrorMsg struct {
		repo *repository.Repository
		err  error
	}

	entryFetchedMsg struct {
		repo  *repository.Repository
		entry models.VaultEntry
	}

	entryFetchErrorMsg struct {
		repo *repository.Repository
		id   int64
		err  error
	}

	// clearStatusMsg clears the status line if it still shows status id.
	clearStatusMsg struct {
		id int
	}
)

// model is the state of the reviewer TUI.
type model struct {
	state     screenState
	debugMode bool
	pageSize  int

	apiClient  api.Client // without credentials; bound per session
	provider   *session.Provider
	sess       session.Session
	repo       *repository.Repository
	controller *review.Controller

	entryList  list.Model
	page       *models.Page
	notesInput textinput.Model
	editNotes  bool
	stats      *models.Stats
	spinner    spinner.Model
	loading    bool
	refreshing bool // startup session refresh in flight

	loginUsernameInput        textinput.Model
	loginPasswordInput        textinput.Model
	registerUsernameInput     textinput.Model
	registerPasswordInput     textinput.Model
	loginRegisterFocusedField int
	err                       error

	status      string
	statusLevel review.Level
	statusID    int

	width       int
	height      int
	helpTextMap map[screenState]string
	docStyle    lipgloss.Style
}
