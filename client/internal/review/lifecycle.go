package review

import (
	"fmt"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/models"
)

// CommandKind names a write the reviewer can issue against an entry.
type CommandKind int

const (
	CommandArchive CommandKind = iota
	CommandFeedback
	CommandRevert
)

func (k CommandKind) String() string {
	switch k {
	case CommandArchive:
		return "archive"
	case CommandFeedback:
		return "feedback"
	case CommandRevert:
		return "revert"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Lifecycle is the position of an entry on its three independent axes:
// active/archived, unreviewed/reviewed and live/reverted.
// Reverted is terminal for the whole entry.
type Lifecycle struct {
	Archived bool
	Reviewed bool
	Reverted bool
}

// LifecycleOf derives the lifecycle from the fetched entry flags.
func LifecycleOf(e models.VaultEntry) Lifecycle {
	return Lifecycle{
		Archived: e.IsArchived,
		Reviewed: e.Feedback != nil,
		Reverted: e.Reverted,
	}
}

// Terminal reports whether no further writes are possible.
func (l Lifecycle) Terminal() bool {
	return l.Reverted
}

// Label is a short human-readable status.
func (l Lifecycle) Label() string {
	switch {
	case l.Reverted:
		return "reverted"
	case l.Archived && l.Reviewed:
		return "archived, reviewed"
	case l.Archived:
		return "archived"
	case l.Reviewed:
		return "reviewed"
	default:
		return "active"
	}
}

// Actions is the set of triggers the UI may offer for an entry.
type Actions struct {
	View     bool
	Archive  bool
	Feedback bool
	Revert   bool
}

// ActionsFor returns the triggers available for an entry. A reverted entry
// can only be viewed. An archived entry no longer offers archive or feedback
// from the list but can still be reverted.
func ActionsFor(e models.VaultEntry) Actions {
	lc := LifecycleOf(e)
	if lc.Terminal() {
		return Actions{View: true}
	}
	return Actions{
		View:     true,
		Archive:  !lc.Archived,
		Feedback: !lc.Archived,
		Revert:   true,
	}
}

// CheckCommand rejects any write against a reverted entry with api.ErrConflict.
func CheckCommand(e models.VaultEntry, kind CommandKind) error {
	if LifecycleOf(e).Terminal() {
		return fmt.Errorf("%s entry %d: entry is reverted: %w", kind, e.ID, api.ErrConflict)
	}
	return nil
}
