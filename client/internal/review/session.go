// Package review implements the reviewer workflow: the review dialog state
// machine, the two-phase revert confirmation and the mediation of reviewer
// intent into repository commands.
package review

import (
	"errors"
	"fmt"

	"github.com/maynagashev/redactvault/models"
)

// Session errors.
var (
	// ErrBusy is returned while a command is in flight.
	ErrBusy = errors.New("a command is already in progress")
	// ErrNoDialog is returned for dialog actions while no dialog is open.
	ErrNoDialog = errors.New("no review dialog is open")
	// ErrInvalidTransition is returned for actions not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid review transition")
)

// State is the dialog state of a review session.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateRevertConfirm
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateRevertConfirm:
		return "revert-confirm"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ViewMode selects how an open dialog presents the entry.
type ViewMode int

const (
	// ViewSingle shows one text, redacted unless ShowOriginal is set.
	ViewSingle ViewMode = iota
	// ViewCompare shows original and redacted side by side.
	ViewCompare
)

func (v ViewMode) String() string {
	if v == ViewCompare {
		return "compare"
	}
	return "single"
}

// FeedbackDraft is the feedback being composed.
type FeedbackDraft struct {
	IsPositive bool
	Notes      string
}

// Draft is the transient state of an open review dialog.
type Draft struct {
	TargetEntryID int64
	ViewMode      ViewMode
	ShowOriginal  bool
	Feedback      FeedbackDraft
}

// DefaultDraft is the draft every dialog starts from.
func DefaultDraft() Draft {
	return Draft{
		ViewMode: ViewSingle,
		Feedback: FeedbackDraft{IsPositive: true},
	}
}

// Session is the dialog state machine for one reviewer.
//
//	Closed -> Open(single) <-> Open(compare) -> Closed
//	Open(*) -> RevertConfirm -> Open(*)  (cancel)
//	RevertConfirm -> Closed              (confirmed revert succeeded)
//
// Every transition into Closed resets the draft. While busy every
// transition is rejected with ErrBusy. Session is not safe for concurrent
// use; the TUI drives it from its update loop.
type Session struct {
	state State
	draft Draft
	busy  bool
}

// NewSession returns a closed session.
func NewSession() *Session {
	return &Session{draft: DefaultDraft()}
}

// State returns the dialog state.
func (s *Session) State() State { return s.state }

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft { return s.draft }

// Busy reports whether a command is in flight.
func (s *Session) Busy() bool { return s.busy }

// Target returns the entry the dialog is open for.
func (s *Session) Target() (int64, bool) {
	if s.state == StateClosed {
		return 0, false
	}
	return s.draft.TargetEntryID, true
}

// Open opens the dialog for an entry in single view.
func (s *Session) Open(entry models.VaultEntry) error {
	if s.busy {
		return ErrBusy
	}
	if s.state != StateClosed {
		return fmt.Errorf("open entry %d while %s: %w", entry.ID, s.state, ErrInvalidTransition)
	}
	s.draft = DefaultDraft()
	s.draft.TargetEntryID = entry.ID
	s.state = StateOpen
	return nil
}

// Close closes the dialog from any state and resets the draft.
func (s *Session) Close() error {
	if s.busy {
		return ErrBusy
	}
	s.close()
	return nil
}

func (s *Session) close() {
	s.state = StateClosed
	s.draft = DefaultDraft()
}

// ToggleViewMode switches between single and compare view. Leaving single
// view hides the original again.
func (s *Session) ToggleViewMode() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if s.draft.ViewMode == ViewSingle {
		s.draft.ViewMode = ViewCompare
	} else {
		s.draft.ViewMode = ViewSingle
	}
	s.draft.ShowOriginal = false
	return nil
}

// ToggleShowOriginal reveals or hides the original text in single view.
func (s *Session) ToggleShowOriginal() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if s.draft.ViewMode != ViewSingle {
		return fmt.Errorf("reveal original in %s view: %w", s.draft.ViewMode, ErrInvalidTransition)
	}
	s.draft.ShowOriginal = !s.draft.ShowOriginal
	return nil
}

// SetFeedbackPositive sets the correctness judgment.
func (s *Session) SetFeedbackPositive(positive bool) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	s.draft.Feedback.IsPositive = positive
	return nil
}

// SetNotes replaces the feedback notes.
func (s *Session) SetNotes(notes string) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	s.draft.Feedback.Notes = notes
	return nil
}

// RequestRevert enters the revert confirmation.
func (s *Session) RequestRevert() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	s.state = StateRevertConfirm
	return nil
}

// CancelRevert leaves the confirmation and returns to the dialog unchanged.
func (s *Session) CancelRevert() error {
	if s.busy {
		return ErrBusy
	}
	if s.state != StateRevertConfirm {
		return fmt.Errorf("cancel revert while %s: %w", s.state, ErrInvalidTransition)
	}
	s.state = StateOpen
	return nil
}

func (s *Session) requireOpen() error {
	if s.busy {
		return ErrBusy
	}
	switch s.state {
	case StateClosed:
		return ErrNoDialog
	case StateRevertConfirm:
		return fmt.Errorf("dialog is awaiting revert confirmation: %w", ErrInvalidTransition)
	default:
		return nil
	}
}
