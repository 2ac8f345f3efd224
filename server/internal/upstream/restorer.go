// Package upstream hands restore requests to the connector that owns the
// original conversations. Requests are written as JSON objects to a bucket
// the connector consumes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
	"github.com/maynagashev/redactvault/server/internal/storage"
)

const defaultPrefix = "restore-requests"

// Restorer publishes restore requests to object storage.
type Restorer struct {
	store  storage.ObjectStorage
	prefix string
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewRestorer returns a Restorer writing under prefix, or "restore-requests" if empty.
func NewRestorer(store storage.ObjectStorage, prefix string) *Restorer {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Restorer{
		store:  store,
		prefix: prefix,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Restore writes a request to put entry's original text back upstream and
// returns the object key it was stored under.
func (r *Restorer) Restore(ctx context.Context, entry srvmodels.EntryRow, requestedBy int64) (string, error) {
	req := srvmodels.RestoreRequest{
		EntryID:         entry.ID,
		ConversationID:  entry.ConversationID,
		MessageID:       entry.MessageID,
		OriginalMessage: entry.OriginalMessage,
		RequestedBy:     requestedBy,
		RequestedAt:     r.now().UTC(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode restore request: %w", err)
	}

	key := path.Join(r.prefix, keySegment(entry.ConversationID), r.newID().String()+".json")
	if err = r.store.PutObject(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", fmt.Errorf("publish restore request for entry %d: %w", entry.ID, err)
	}

	log.Printf("[Restorer] Restore request for entry %d stored at '%s'", entry.ID, key)
	return key, nil
}

// keySegment turns an id into a single object key segment. Slashes are
// escaped and dot-only names are encoded so the key stays under the prefix.
func keySegment(id string) string {
	seg := url.PathEscape(id)
	if strings.Trim(seg, ".") == "" {
		seg = strings.ReplaceAll(seg, ".", "%2E")
		if seg == "" {
			seg = "_"
		}
	}
	return seg
}
