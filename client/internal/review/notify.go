package review

import (
	"errors"
	"time"

	"github.com/maynagashev/redactvault/client/internal/api"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
	// LevelCritical is used for failed reverts: the upstream message may
	// still hold redacted text the reviewer expected to be restored.
	LevelCritical
)

// Display durations.
const (
	DefaultTTL  = 3 * time.Second
	CriticalTTL = 10 * time.Second
)

// Notification is a message for the reviewer.
type Notification struct {
	Level   Level
	Message string
	TTL     time.Duration
}

// Empty reports whether there is nothing to show.
func (n Notification) Empty() bool {
	return n.Message == ""
}

// IsError reports whether the notification describes a failure.
func (n Notification) IsError() bool {
	return n.Level >= LevelError
}

func notice(level Level, msg string) Notification {
	ttl := DefaultTTL
	if level == LevelCritical {
		ttl = CriticalTTL
	}
	return Notification{Level: level, Message: msg, TTL: ttl}
}

// Describe turns an error into a message for the reviewer.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "another action is still in progress"
	case errors.Is(err, api.ErrAuth):
		return "session is missing or expired, log in again"
	case errors.Is(err, api.ErrConflict):
		return "entry state changed on the server, it may already be reverted"
	case errors.Is(err, api.ErrNotFound):
		return "entry no longer exists"
	case errors.Is(err, api.ErrValidation):
		return "request rejected: " + err.Error()
	case errors.Is(err, api.ErrTransport):
		return "server unavailable, try again"
	default:
		return err.Error()
	}
}

func failureNotice(kind CommandKind, err error) Notification {
	level := LevelError
	prefix := ""
	switch kind {
	case CommandArchive:
		prefix = "Archive failed: "
	case CommandFeedback:
		prefix = "Feedback not saved: "
		if errors.Is(err, errNoReviewer) {
			return notice(level, prefix+"reviewer name is required")
		}
	case CommandRevert:
		prefix = "Revert failed: "
		level = LevelCritical
	}
	return notice(level, prefix+Describe(err))
}

func successNotice(kind CommandKind, refreshErr error) Notification {
	var msg string
	switch kind {
	case CommandArchive:
		msg = "Entry archived"
	case CommandFeedback:
		msg = "Feedback saved"
	case CommandRevert:
		msg = "Original message restored"
	}
	if refreshErr != nil {
		return notice(LevelWarning, msg+", but the list could not be refreshed: "+Describe(refreshErr))
	}
	return notice(LevelSuccess, msg)
}
