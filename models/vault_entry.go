package models

import (
	"fmt"
	"math"
	"time"
)

// Feedback is a reviewer's correctness judgment attached to an entry.
// A newer submission replaces the previous one on the server.
type Feedback struct {
	IsPositive    bool      `json:"is_positive"`
	FeedbackNotes string    `json:"feedback_notes"`
	ReviewedBy    string    `json:"reviewed_by"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// VaultEntry is one redacted message together with its original text,
// detection metadata and review state.
type VaultEntry struct {
	ID             int64  `json:"id"`
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`

	OriginalMessage string `json:"original_message"`
	RedactedMessage string `json:"redacted_message"`

	ConfidenceScore float64 `json:"confidence_score"`
	RedactionCount  int     `json:"redaction_count"`
	MessageType     string  `json:"message_type"`
	ProcessingTime  float64 `json:"processing_time"` // seconds

	IsArchived bool      `json:"is_archived"`
	Reverted   bool      `json:"reverted"`
	Feedback   *Feedback `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ConfidencePercent returns the confidence score as a rounded percentage.
// Out-of-range scores are not clamped, see Anomalies.
func (e VaultEntry) ConfidencePercent() int {
	return int(math.Round(e.ConfidenceScore * 100))
}

// Reviewed reports whether any feedback is attached.
func (e VaultEntry) Reviewed() bool {
	return e.Feedback != nil
}

// Anomalies lists violations of the entry data contract.
// An empty result means the entry can be rendered as is.
func (e VaultEntry) Anomalies() []string {
	var out []string
	if e.ConfidenceScore < 0 || e.ConfidenceScore > 1 || math.IsNaN(e.ConfidenceScore) {
		out = append(out, fmt.Sprintf("confidence score %v outside [0,1]", e.ConfidenceScore))
	}
	if e.RedactionCount < 0 {
		out = append(out, fmt.Sprintf("negative redaction count %d", e.RedactionCount))
	}
	if (e.OriginalMessage == "") != (e.RedactedMessage == "") {
		out = append(out, "original/redacted text pair is partially populated")
	}
	return out
}

// Page is an ordered window of entries as returned by the server.
type Page struct {
	Items    []VaultEntry `json:"items"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int          `json:"total"`
}

// TotalPages returns ceil(Total / PageSize), or 0 for a non-positive page size.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Find returns the entry with the given id if it is on this page.
func (p Page) Find(id int64) (VaultEntry, bool) {
	for _, e := range p.Items {
		if e.ID == id {
			return e, true
		}
	}
	return VaultEntry{}, false
}

// FeedbackRequest is the body of a feedback submission.
type FeedbackRequest struct {
	IsPositive    bool   `json:"is_positive"`
	FeedbackNotes string `json:"feedback_notes"`
	ReviewedBy    string `json:"reviewed_by"`
}

// CreateEntryRequest is sent by the redaction pipeline to register a new entry.
type CreateEntryRequest struct {
	MessageID       string  `json:"message_id"`
	ConversationID  string  `json:"conversation_id"`
	UserID          string  `json:"user_id"`
	OriginalMessage string  `json:"original_message"`
	RedactedMessage string  `json:"redacted_message"`
	ConfidenceScore float64 `json:"confidence_score"`
	RedactionCount  int     `json:"redaction_count"`
	MessageType     string  `json:"message_type"`
	ProcessingTime  float64 `json:"processing_time"`
}

// Stats holds display-only aggregates computed by the server.
type Stats struct {
	TotalEntries      int     `json:"total_entries"`
	TotalRedactions   int     `json:"total_redactions"`
	PositiveFeedback  int     `json:"positive_feedback"`
	FeedbackRatio     float64 `json:"feedback_ratio"`
	AvgProcessingTime string  `json:"avg_processing_time"`
}
