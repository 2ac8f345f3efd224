// Package repository is the client-side source of truth for vault entries.
//
// Entries are only ever replaced by a page fetched from the server. Every
// successful write is followed by a re-fetch of the page the reviewer is on.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/models"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// ErrStaleResponse is returned when a page response was superseded by a newer
// request. The response is dropped and must not be shown to the reviewer.
var ErrStaleResponse = errors.New("stale page response")

// EntryAPI is the subset of the API client the repository needs.
type EntryAPI interface {
	ListEntries(ctx context.Context, page, pageSize int) (*models.Page, error)
	GetEntry(ctx context.Context, id int64) (*models.VaultEntry, error)
	ArchiveEntry(ctx context.Context, id int64) (*models.VaultEntry, error)
	SubmitFeedback(ctx context.Context, id int64, req models.FeedbackRequest) (*models.VaultEntry, error)
	RevertEntry(ctx context.Context, id int64) (*models.VaultEntry, error)
	GetStats(ctx context.Context) (*models.Stats, error)
}

// FeedbackInput is the reviewer's judgment for one entry.
type FeedbackInput struct {
	IsPositive bool
	Notes      string
	ReviewedBy string
}

// Result is the outcome of a write command. Entry is the server's view of
// the entry right after the write. Page is the re-fetched page, nil if the
// refresh failed (RefreshErr) or was superseded by a newer fetch.
type Result struct {
	Entry      *models.VaultEntry
	Page       *models.Page
	RefreshErr error
}

// Repository fetches pages and issues entry commands. It is safe for
// concurrent use.
type Repository struct {
	api EntryAPI

	mu       sync.Mutex
	token    uint64 // latest page request
	page     int
	pageSize int
	current  *models.Page
	// entries known outside the current page, such as one written just
	// before it left the page
	detached map[int64]models.VaultEntry
}

// New creates a repository positioned on page 1.
func New(entryAPI EntryAPI, pageSize int) *Repository {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Repository{
		api:      entryAPI,
		page:     1,
		pageSize: pageSize,
		detached: make(map[int64]models.VaultEntry),
	}
}

// FetchPage loads one page. The requested page becomes the page the reviewer
// is on even if the request fails. A response that arrives after a newer
// request was issued is discarded with ErrStaleResponse.
func (r *Repository) FetchPage(ctx context.Context, page, pageSize int) (*models.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	r.mu.Lock()
	token := r.issue(page, pageSize)
	r.mu.Unlock()

	return r.fetch(ctx, token, page, pageSize)
}

// Refresh re-fetches the page the reviewer is on. The position is read and
// the request issued under one lock, so a page requested concurrently is
// never overridden by an older position.
func (r *Repository) Refresh(ctx context.Context) (*models.Page, error) {
	r.mu.Lock()
	page, size := r.page, r.pageSize
	token := r.issue(page, size)
	r.mu.Unlock()

	return r.fetch(ctx, token, page, size)
}

// issue records a new page request and returns its token. r.mu must be held.
func (r *Repository) issue(page, pageSize int) uint64 {
	r.token++
	r.page = page
	r.pageSize = pageSize
	return r.token
}

func (r *Repository) fetch(ctx context.Context, token uint64, page, pageSize int) (*models.Page, error) {
	fetched, err := r.api.ListEntries(ctx, page, pageSize)

	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token {
		slog.Debug("dropping superseded page response", "page", page, "token", token, "latest", r.token)
		return nil, ErrStaleResponse
	}
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	r.current = fetched
	for _, e := range fetched.Items {
		delete(r.detached, e.ID)
	}
	return fetched, nil
}

// Position returns the current page number and page size.
func (r *Repository) Position() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page, r.pageSize
}

// Current returns the last accepted page, nil before the first successful fetch.
func (r *Repository) Current() *models.Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Lookup finds an entry on the last accepted page, then among entries
// fetched or written outside of it.
func (r *Repository) Lookup(id int64) (models.VaultEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		if e, ok := r.current.Find(id); ok {
			return e, true
		}
	}
	e, ok := r.detached[id]
	return e, ok
}

// FetchEntry loads a single entry from the server. It keeps an entry the
// reviewer has open visible after it left the current page.
func (r *Repository) FetchEntry(ctx context.Context, id int64) (models.VaultEntry, error) {
	if id <= 0 {
		return models.VaultEntry{}, fmt.Errorf("fetch entry: invalid entry id %d: %w", id, api.ErrValidation)
	}
	entry, err := r.api.GetEntry(ctx, id)
	if err != nil {
		return models.VaultEntry{}, fmt.Errorf("fetch entry %d: %w", id, err)
	}
	r.remember(*entry)
	return *entry, nil
}

// remember keeps e for Lookup unless the current page already shows it.
func (r *Repository) remember(e models.VaultEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		if _, ok := r.current.Find(e.ID); ok {
			return
		}
	}
	r.detached[e.ID] = e
}

// Archive marks the entry archived. Archiving an archived entry succeeds.
func (r *Repository) Archive(ctx context.Context, id int64) (Result, error) {
	if err := r.checkWritable(id); err != nil {
		return Result{}, fmt.Errorf("archive entry %d: %w", id, err)
	}
	entry, err := r.api.ArchiveEntry(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("archive entry %d: %w", id, err)
	}
	return r.afterWrite(ctx, entry), nil
}

// SubmitFeedback attaches feedback to the entry, replacing any earlier one.
// An empty reviewer is rejected before any network call.
func (r *Repository) SubmitFeedback(ctx context.Context, id int64, in FeedbackInput) (Result, error) {
	reviewer := strings.TrimSpace(in.ReviewedBy)
	if reviewer == "" {
		return Result{}, fmt.Errorf("submit feedback for entry %d: reviewer is required: %w", id, api.ErrValidation)
	}
	if err := r.checkWritable(id); err != nil {
		return Result{}, fmt.Errorf("submit feedback for entry %d: %w", id, err)
	}

	entry, err := r.api.SubmitFeedback(ctx, id, models.FeedbackRequest{
		IsPositive:    in.IsPositive,
		FeedbackNotes: in.Notes,
		ReviewedBy:    reviewer,
	})
	if err != nil {
		return Result{}, fmt.Errorf("submit feedback for entry %d: %w", id, err)
	}
	return r.afterWrite(ctx, entry), nil
}

// Revert asks the server to restore the original text upstream. Irreversible.
func (r *Repository) Revert(ctx context.Context, id int64) (Result, error) {
	if err := r.checkWritable(id); err != nil {
		return Result{}, fmt.Errorf("revert entry %d: %w", id, err)
	}
	entry, err := r.api.RevertEntry(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("revert entry %d: %w", id, err)
	}
	return r.afterWrite(ctx, entry), nil
}

// Stats passes aggregate statistics through for display.
func (r *Repository) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := r.api.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

// checkWritable rejects ids that cannot be written and entries the last
// fetched page already shows as reverted.
func (r *Repository) checkWritable(id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid entry id %d: %w", id, api.ErrValidation)
	}
	if entry, ok := r.Lookup(id); ok && entry.Reverted {
		return fmt.Errorf("entry already reverted: %w", api.ErrConflict)
	}
	return nil
}

// afterWrite performs the mandatory re-fetch. The write already succeeded,
// so a refresh failure is reported separately.
func (r *Repository) afterWrite(ctx context.Context, entry *models.VaultEntry) Result {
	res := Result{Entry: entry}
	page, err := r.Refresh(ctx)
	if entry != nil {
		r.remember(*entry)
	}
	switch {
	case errors.Is(err, ErrStaleResponse):
		// a newer fetch owns the view
	case err != nil:
		slog.Warn("refresh after write failed", "error", err)
		res.RefreshErr = err
	default:
		res.Page = page
	}
	return res
}
