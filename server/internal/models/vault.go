package models

import (
	"database/sql"
	"time"

	"github.com/maynagashev/redactvault/models"
)

// EntryRow is a vault_entries row joined with its optional vault_feedback row.
type EntryRow struct {
	ID              int64     `db:"id"`
	MessageID       string    `db:"message_id"`
	ConversationID  string    `db:"conversation_id"`
	UserID          string    `db:"user_id"`
	OriginalMessage string    `db:"original_message"`
	RedactedMessage string    `db:"redacted_message"`
	ConfidenceScore float64   `db:"confidence_score"`
	RedactionCount  int       `db:"redaction_count"`
	MessageType     string    `db:"message_type"`
	ProcessingTime  float64   `db:"processing_time"`
	IsArchived      bool      `db:"is_archived"`
	Reverted        bool      `db:"reverted"`
	CreatedAt       time.Time `db:"created_at"`

	// Columns from the LEFT JOIN, NULL when no feedback exists.
	FeedbackPositive sql.NullBool   `db:"fb_is_positive"`
	FeedbackNotes    sql.NullString `db:"fb_notes"`
	ReviewedBy       sql.NullString `db:"fb_reviewed_by"`
	ReviewedAt       sql.NullTime   `db:"fb_reviewed_at"`
}

// ToEntry converts the row to its wire representation.
func (r EntryRow) ToEntry() models.VaultEntry {
	e := models.VaultEntry{
		ID:              r.ID,
		MessageID:       r.MessageID,
		ConversationID:  r.ConversationID,
		UserID:          r.UserID,
		OriginalMessage: r.OriginalMessage,
		RedactedMessage: r.RedactedMessage,
		ConfidenceScore: r.ConfidenceScore,
		RedactionCount:  r.RedactionCount,
		MessageType:     r.MessageType,
		ProcessingTime:  r.ProcessingTime,
		IsArchived:      r.IsArchived,
		Reverted:        r.Reverted,
		CreatedAt:       r.CreatedAt,
	}
	if r.FeedbackPositive.Valid {
		e.Feedback = &models.Feedback{
			IsPositive:    r.FeedbackPositive.Bool,
			FeedbackNotes: r.FeedbackNotes.String,
			ReviewedBy:    r.ReviewedBy.String,
			ReviewedAt:    r.ReviewedAt.Time,
		}
	}
	return e
}

// StatsRow holds the raw aggregates behind models.Stats.
type StatsRow struct {
	TotalEntries      int     `db:"total_entries"`
	TotalRedactions   int     `db:"total_redactions"`
	PositiveFeedback  int     `db:"positive_feedback"`
	ReviewedEntries   int     `db:"reviewed_entries"`
	AvgProcessingTime float64 `db:"avg_processing_time"`
}

// RestoreRequest asks the upstream conversation store to put the original
// text back in place of the redacted one.
type RestoreRequest struct {
	EntryID         int64     `json:"entry_id"`
	ConversationID  string    `json:"conversation_id"`
	MessageID       string    `json:"message_id"`
	OriginalMessage string    `json:"original_message"`
	RequestedBy     int64     `json:"requested_by"`
	RequestedAt     time.Time `json:"requested_at"`
}
