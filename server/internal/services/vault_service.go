package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/maynagashev/redactvault/models"
	"github.com/maynagashev/redactvault/server/internal/metrics"
	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
	"github.com/maynagashev/redactvault/server/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Restorer puts an entry's original text back in the upstream conversation.
type Restorer interface {
	Restore(ctx context.Context, entry srvmodels.EntryRow, requestedBy int64) (string, error)
}

// VaultService implements the review commands over vault entries.
type VaultService interface {
	List(ctx context.Context, page, pageSize int) (*models.Page, error)
	Get(ctx context.Context, id int64) (*models.VaultEntry, error)
	Create(ctx context.Context, req *models.CreateEntryRequest) (*models.VaultEntry, error)
	Archive(ctx context.Context, id int64) (*models.VaultEntry, error)
	SubmitFeedback(ctx context.Context, id int64, req models.FeedbackRequest) (*models.VaultEntry, error)
	Revert(ctx context.Context, id, userID int64) (*models.VaultEntry, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

var _ VaultService = (*vaultService)(nil)

type vaultService struct {
	entries  repository.VaultEntryRepository
	restorer Restorer
	metrics  *metrics.VaultMetrics
}

// NewVaultService wires the service. m may be nil.
func NewVaultService(
	entries repository.VaultEntryRepository,
	restorer Restorer,
	m *metrics.VaultMetrics,
) VaultService {
	return &vaultService{entries: entries, restorer: restorer, metrics: m}
}

// List returns a page of entries. Non-positive arguments fall back to the
// first page and the default size; the size is capped at MaxPageSize.
func (s *vaultService) List(ctx context.Context, page, pageSize int) (*models.Page, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	items, total, err := s.entries.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return &models.Page{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// Get returns one entry with its feedback.
func (s *vaultService) Get(ctx context.Context, id int64) (*models.VaultEntry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid entry id %d", ErrInvalidInput, id)
	}
	return s.load(ctx, id)
}

// Create validates and stores a pipeline entry.
func (s *vaultService) Create(ctx context.Context, req *models.CreateEntryRequest) (*models.VaultEntry, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	id, err := s.entries.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return s.load(ctx, id)
}

// Archive hides the entry from the active queue. Repeating it is harmless.
func (s *vaultService) Archive(ctx context.Context, id int64) (*models.VaultEntry, error) {
	start := time.Now()
	err := s.entries.SetArchived(ctx, id)
	err = s.observe("archive", start, translate(err))
	if err != nil {
		return nil, err
	}
	log.Printf("[VaultService:Archive] Entry %d archived", id)
	return s.load(ctx, id)
}

// SubmitFeedback records the reviewer's judgment, replacing any earlier one.
func (s *vaultService) SubmitFeedback(
	ctx context.Context,
	id int64,
	req models.FeedbackRequest,
) (*models.VaultEntry, error) {
	start := time.Now()
	reviewer := strings.TrimSpace(req.ReviewedBy)
	if reviewer == "" {
		return nil, s.observe("feedback", start, fmt.Errorf("%w: reviewed_by is required", ErrInvalidInput))
	}

	err := s.entries.UpsertFeedback(ctx, id, models.Feedback{
		IsPositive:    req.IsPositive,
		FeedbackNotes: req.FeedbackNotes,
		ReviewedBy:    reviewer,
	})
	if err = s.observe("feedback", start, translate(err)); err != nil {
		return nil, err
	}
	log.Printf("[VaultService:SubmitFeedback] Feedback for entry %d saved by '%s'", id, reviewer)
	return s.load(ctx, id)
}

// Revert restores the original message upstream and marks the entry reverted.
// It succeeds at most once per entry.
func (s *vaultService) Revert(ctx context.Context, id, userID int64) (*models.VaultEntry, error) {
	start := time.Now()
	err := s.entries.MarkReverted(ctx, id, func(ctx context.Context, row srvmodels.EntryRow) error {
		if _, restoreErr := s.restorer.Restore(ctx, row, userID); restoreErr != nil {
			return fmt.Errorf("%w: %w", ErrRestoreFailed, restoreErr)
		}
		return nil
	})
	if err = s.observe("revert", start, translate(err)); err != nil {
		return nil, err
	}
	log.Printf("[VaultService:Revert] Entry %d reverted by user %d", id, userID)
	return s.load(ctx, id)
}

// Stats returns display aggregates.
func (s *vaultService) Stats(ctx context.Context) (*models.Stats, error) {
	row, err := s.entries.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}

	var ratio float64
	if row.ReviewedEntries > 0 {
		ratio = math.Round(float64(row.PositiveFeedback)/float64(row.ReviewedEntries)*1000) / 1000
	}
	return &models.Stats{
		TotalEntries:      row.TotalEntries,
		TotalRedactions:   row.TotalRedactions,
		PositiveFeedback:  row.PositiveFeedback,
		FeedbackRatio:     ratio,
		AvgProcessingTime: fmt.Sprintf("%.1fs", row.AvgProcessingTime),
	}, nil
}

func (s *vaultService) load(ctx context.Context, id int64) (*models.VaultEntry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return entry, nil
}

func (s *vaultService) observe(command string, start time.Time, err error) error {
	s.metrics.ObserveCommand(command, statusLabel(err), time.Since(start).Seconds())
	return err
}

// translate maps repository errors to service errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, repository.ErrEntryReverted):
		return ErrEntryReverted
	case errors.Is(err, repository.ErrAlreadyReverted):
		return ErrAlreadyReverted
	default:
		return err
	}
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, ErrEntryReverted), errors.Is(err, ErrAlreadyReverted):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrRestoreFailed):
		return "upstream_error"
	default:
		return "error"
	}
}

func validateCreate(req *models.CreateEntryRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: empty request", ErrInvalidInput)
	case strings.TrimSpace(req.MessageID) == "" || strings.TrimSpace(req.ConversationID) == "":
		return fmt.Errorf("%w: message_id and conversation_id are required", ErrInvalidInput)
	case math.IsNaN(req.ConfidenceScore) || req.ConfidenceScore < 0 || req.ConfidenceScore > 1:
		return fmt.Errorf("%w: confidence_score must be within [0,1]", ErrInvalidInput)
	case req.RedactionCount < 0:
		return fmt.Errorf("%w: redaction_count must not be negative", ErrInvalidInput)
	case (req.OriginalMessage == "") != (req.RedactedMessage == ""):
		return fmt.Errorf("%w: original_message and redacted_message must both be set", ErrInvalidInput)
	}
	return nil
}
