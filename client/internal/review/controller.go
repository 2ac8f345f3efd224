package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/repository"
	"github.com/maynagashev/redactvault/models"
)

var errNoReviewer = errors.New("reviewer name is required")

// EntryRepository is what the controller needs from the repository.
type EntryRepository interface {
	Lookup(id int64) (models.VaultEntry, bool)
	Archive(ctx context.Context, id int64) (repository.Result, error)
	SubmitFeedback(ctx context.Context, id int64, in repository.FeedbackInput) (repository.Result, error)
	Revert(ctx context.Context, id int64) (repository.Result, error)
}

// Command is a repository write prepared by the controller. The session is
// busy from the moment a command is returned until its outcome is passed to
// Controller.Complete.
type Command struct {
	Kind    CommandKind
	EntryID int64
	run     func(ctx context.Context) (repository.Result, error)
}

// Outcome is the result of running a command.
type Outcome struct {
	Kind    CommandKind
	EntryID int64
	Result  repository.Result
	Err     error
}

// Run performs the repository call. It may be called from any goroutine.
func (c *Command) Run(ctx context.Context) Outcome {
	res, err := c.run(ctx)
	return Outcome{Kind: c.Kind, EntryID: c.EntryID, Result: res, Err: err}
}

// Controller turns reviewer intent into session transitions and repository
// commands.
type Controller struct {
	session *Session
	repo    EntryRepository
}

// NewController creates a controller with a closed session.
func NewController(repo EntryRepository) *Controller {
	return &Controller{session: NewSession(), repo: repo}
}

// Session exposes the dialog state for rendering.
func (c *Controller) Session() *Session {
	return c.session
}

// Open opens the review dialog for an entry.
func (c *Controller) Open(entry models.VaultEntry) error { return c.session.Open(entry) }

// Close closes the dialog and resets the draft.
func (c *Controller) Close() error { return c.session.Close() }

// ToggleViewMode switches between single and compare view.
func (c *Controller) ToggleViewMode() error { return c.session.ToggleViewMode() }

// ToggleShowOriginal reveals or hides the original in single view.
func (c *Controller) ToggleShowOriginal() error { return c.session.ToggleShowOriginal() }

// SetFeedbackPositive sets the judgment in the draft.
func (c *Controller) SetFeedbackPositive(positive bool) error {
	return c.session.SetFeedbackPositive(positive)
}

// SetNotes sets the feedback notes in the draft.
func (c *Controller) SetNotes(notes string) error { return c.session.SetNotes(notes) }

// RequestRevert asks for revert confirmation. A reverted entry cannot be
// reverted again.
func (c *Controller) RequestRevert() error {
	if id, ok := c.session.Target(); ok && !c.session.Busy() {
		if err := c.checkEntry(id, CommandRevert); err != nil {
			return err
		}
	}
	return c.session.RequestRevert()
}

// CancelRevert returns from the confirmation to the dialog.
func (c *Controller) CancelRevert() error { return c.session.CancelRevert() }

// SubmitFeedback prepares the feedback command for the open dialog.
func (c *Controller) SubmitFeedback(reviewer string) (*Command, error) {
	if err := c.session.requireOpen(); err != nil {
		return nil, err
	}
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		return nil, fmt.Errorf("%w: %w", api.ErrValidation, errNoReviewer)
	}
	id := c.session.draft.TargetEntryID
	if err := c.checkEntry(id, CommandFeedback); err != nil {
		return nil, err
	}

	in := repository.FeedbackInput{
		IsPositive: c.session.draft.Feedback.IsPositive,
		Notes:      c.session.draft.Feedback.Notes,
		ReviewedBy: reviewer,
	}
	return c.begin(CommandFeedback, id, func(ctx context.Context) (repository.Result, error) {
		return c.repo.SubmitFeedback(ctx, id, in)
	}), nil
}

// ConfirmRevert prepares the revert command. Only valid while confirming.
func (c *Controller) ConfirmRevert() (*Command, error) {
	if c.session.busy {
		return nil, ErrBusy
	}
	if c.session.state != StateRevertConfirm {
		return nil, fmt.Errorf("confirm revert while %s: %w", c.session.state, ErrInvalidTransition)
	}
	id := c.session.draft.TargetEntryID
	if err := c.checkEntry(id, CommandRevert); err != nil {
		return nil, err
	}
	return c.begin(CommandRevert, id, func(ctx context.Context) (repository.Result, error) {
		return c.repo.Revert(ctx, id)
	}), nil
}

// Archive prepares the archive command for an entry in the list.
func (c *Controller) Archive(id int64) (*Command, error) {
	if c.session.busy {
		return nil, ErrBusy
	}
	if err := c.checkEntry(id, CommandArchive); err != nil {
		return nil, err
	}
	return c.begin(CommandArchive, id, func(ctx context.Context) (repository.Result, error) {
		return c.repo.Archive(ctx, id)
	}), nil
}

// Complete applies a command outcome to the session and returns the
// notification to show. On failure the session stays in its pre-command
// state with the draft intact. Nothing is retried.
func (c *Controller) Complete(o Outcome) Notification {
	c.session.busy = false

	if o.Err != nil {
		slog.Warn("review command failed", "command", o.Kind.String(), "entry", o.EntryID, "error", o.Err)
		return failureNotice(o.Kind, o.Err)
	}

	slog.Info("review command succeeded", "command", o.Kind.String(), "entry", o.EntryID)
	// archive is a list action and leaves the dialog alone
	if o.Kind == CommandFeedback || o.Kind == CommandRevert {
		c.session.close()
	}
	return successNotice(o.Kind, o.Result.RefreshErr)
}

// Reject builds the notification for a command that could not be started.
func (c *Controller) Reject(kind CommandKind, err error) Notification {
	return failureNotice(kind, err)
}

func (c *Controller) begin(
	kind CommandKind,
	id int64,
	run func(ctx context.Context) (repository.Result, error),
) *Command {
	c.session.busy = true
	return &Command{Kind: kind, EntryID: id, run: run}
}

// checkEntry applies the lifecycle rules to the freshest known copy of the entry.
func (c *Controller) checkEntry(id int64, kind CommandKind) error {
	entry, ok := c.repo.Lookup(id)
	if !ok {
		return nil
	}
	return CheckCommand(entry, kind)
}
