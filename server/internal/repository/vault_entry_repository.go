package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/redactvault/models"
	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
)

const entryColumns = `e.id, e.message_id, e.conversation_id, e.user_id,
	e.original_message, e.redacted_message, e.confidence_score, e.redaction_count,
	e.message_type, e.processing_time, e.is_archived, e.reverted, e.created_at,
	f.is_positive AS fb_is_positive, f.feedback_notes AS fb_notes,
	f.reviewed_by AS fb_reviewed_by, f.reviewed_at AS fb_reviewed_at`

const selectEntries = `SELECT ` + entryColumns + `
	FROM vault_entries e LEFT JOIN vault_feedback f ON f.entry_id = e.id`

const lockEntryQuery = `SELECT id, message_id, conversation_id, user_id, original_message,
	redacted_message, is_archived, reverted, created_at
	FROM vault_entries WHERE id = $1 FOR UPDATE`

const statsQuery = `SELECT COUNT(*) AS total_entries,
	COALESCE(SUM(e.redaction_count), 0) AS total_redactions,
	COUNT(f.entry_id) FILTER (WHERE f.is_positive) AS positive_feedback,
	COUNT(f.entry_id) AS reviewed_entries,
	COALESCE(AVG(e.processing_time), 0) AS avg_processing_time
	FROM vault_entries e LEFT JOIN vault_feedback f ON f.entry_id = e.id`

// RestoreFunc is called inside the revert transaction with the locked row.
// Returning an error aborts the revert.
type RestoreFunc func(ctx context.Context, entry srvmodels.EntryRow) error

// VaultEntryRepository stores redaction entries and their feedback.
type VaultEntryRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.VaultEntry, int, error)
	Get(ctx context.Context, id int64) (*models.VaultEntry, error)
	Create(ctx context.Context, req *models.CreateEntryRequest) (int64, error)
	SetArchived(ctx context.Context, id int64) error
	UpsertFeedback(ctx context.Context, id int64, fb models.Feedback) error
	MarkReverted(ctx context.Context, id int64, restore RestoreFunc) error
	Stats(ctx context.Context) (*srvmodels.StatsRow, error)
}

type postgresVaultEntryRepository struct {
	db *sqlx.DB
}

// NewPostgresVaultEntryRepository returns a VaultEntryRepository backed by PostgreSQL.
func NewPostgresVaultEntryRepository(db *sqlx.DB) VaultEntryRepository {
	return &postgresVaultEntryRepository{db: db}
}

// List returns one page of entries, newest first, and the total entry count.
func (r *postgresVaultEntryRepository) List(
	ctx context.Context,
	limit, offset int,
) ([]models.VaultEntry, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM vault_entries`); err != nil {
		log.Printf("[EntryRepo] Failed to count entries: %v", err)
		return nil, 0, fmt.Errorf("count entries query: %w", err)
	}

	rows := make([]srvmodels.EntryRow, 0, limit)
	query := selectEntries + ` ORDER BY e.created_at DESC, e.id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		log.Printf("[EntryRepo] Failed to list entries (limit=%d, offset=%d): %v", limit, offset, err)
		return nil, 0, fmt.Errorf("list entries query: %w", err)
	}

	entries := make([]models.VaultEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToEntry())
	}
	return entries, total, nil
}

// Get returns a single entry with its feedback.
func (r *postgresVaultEntryRepository) Get(ctx context.Context, id int64) (*models.VaultEntry, error) {
	var row srvmodels.EntryRow
	err := r.db.GetContext(ctx, &row, selectEntries+` WHERE e.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		log.Printf("[EntryRepo] Failed to load entry %d: %v", id, err)
		return nil, fmt.Errorf("get entry query: %w", err)
	}
	entry := row.ToEntry()
	return &entry, nil
}

// Create inserts an entry produced by the redaction pipeline.
func (r *postgresVaultEntryRepository) Create(ctx context.Context, req *models.CreateEntryRequest) (int64, error) {
	query := `INSERT INTO vault_entries (message_id, conversation_id, user_id, original_message,
		redacted_message, confidence_score, redaction_count, message_type, processing_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		req.MessageID, req.ConversationID, req.UserID, req.OriginalMessage, req.RedactedMessage,
		req.ConfidenceScore, req.RedactionCount, req.MessageType, req.ProcessingTime,
	).Scan(&id)
	if err != nil {
		log.Printf("[EntryRepo] Failed to create entry for message '%s': %v", req.MessageID, err)
		return 0, fmt.Errorf("create entry query: %w", err)
	}

	log.Printf("[EntryRepo] Entry %d created for message '%s'", id, req.MessageID)
	return id, nil
}

// SetArchived marks the entry archived. Archiving an archived entry is a no-op.
func (r *postgresVaultEntryRepository) SetArchived(ctx context.Context, id int64) error {
	return r.inLockedEntry(ctx, id, "archive", func(tx *sqlx.Tx, row *srvmodels.EntryRow) error {
		if row.Reverted {
			return ErrEntryReverted
		}
		if row.IsArchived {
			log.Printf("[EntryRepo] Entry %d is already archived", id)
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE vault_entries SET is_archived = TRUE WHERE id = $1`, id); err != nil {
			return fmt.Errorf("archive entry query: %w", err)
		}
		return nil
	})
}

// UpsertFeedback stores the feedback, replacing any earlier submission.
func (r *postgresVaultEntryRepository) UpsertFeedback(ctx context.Context, id int64, fb models.Feedback) error {
	query := `INSERT INTO vault_feedback (entry_id, is_positive, feedback_notes, reviewed_by, reviewed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (entry_id) DO UPDATE SET
			is_positive = EXCLUDED.is_positive,
			feedback_notes = EXCLUDED.feedback_notes,
			reviewed_by = EXCLUDED.reviewed_by,
			reviewed_at = EXCLUDED.reviewed_at`

	return r.inLockedEntry(ctx, id, "feedback", func(tx *sqlx.Tx, row *srvmodels.EntryRow) error {
		if row.Reverted {
			return ErrEntryReverted
		}
		if _, err := tx.ExecContext(ctx, query, id, fb.IsPositive, fb.FeedbackNotes, fb.ReviewedBy); err != nil {
			return fmt.Errorf("upsert feedback query: %w", err)
		}
		return nil
	})
}

// MarkReverted flips the entry to reverted after restore accepts it.
// The flag is only committed when restore succeeds.
func (r *postgresVaultEntryRepository) MarkReverted(ctx context.Context, id int64, restore RestoreFunc) error {
	return r.inLockedEntry(ctx, id, "revert", func(tx *sqlx.Tx, row *srvmodels.EntryRow) error {
		if row.Reverted {
			return ErrAlreadyReverted
		}
		if err := restore(ctx, *row); err != nil {
			return fmt.Errorf("restore original message: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE vault_entries SET reverted = TRUE WHERE id = $1`, id); err != nil {
			return fmt.Errorf("revert entry query: %w", err)
		}
		return nil
	})
}

// Stats computes aggregates over all entries.
func (r *postgresVaultEntryRepository) Stats(ctx context.Context) (*srvmodels.StatsRow, error) {
	var stats srvmodels.StatsRow
	if err := r.db.GetContext(ctx, &stats, statsQuery); err != nil {
		log.Printf("[EntryRepo] Failed to compute stats: %v", err)
		return nil, fmt.Errorf("stats query: %w", err)
	}
	return &stats, nil
}

// inLockedEntry runs fn in a transaction holding a row lock on the entry.
func (r *postgresVaultEntryRepository) inLockedEntry(
	ctx context.Context,
	id int64,
	op string,
	fn func(tx *sqlx.Tx, row *srvmodels.EntryRow) error,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", op, err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("[EntryRepo] Failed to roll back %s of entry %d: %v", op, id, rbErr)
		}
	}()

	var row srvmodels.EntryRow
	if err = tx.GetContext(ctx, &row, lockEntryQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("lock entry query: %w", err)
	}

	if err = fn(tx, &row); err != nil {
		log.Printf("[EntryRepo] %s of entry %d rejected: %v", op, id, err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	log.Printf("[EntryRepo] %s of entry %d committed", op, id)
	return nil
}

var (
	ErrEntryNotFound   = errors.New("vault entry not found")
	ErrEntryReverted   = errors.New("vault entry has been reverted")
	ErrAlreadyReverted = errors.New("vault entry is already reverted")
)
