package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
)

type mockStorage struct {
	mock.Mock
	body []byte
}

func (m *mockStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, _ := io.ReadAll(reader)
	m.body = data
	args := m.Called(ctx, key, size, contentType)
	return args.Error(0)
}

func newTestRestorer(store *mockStorage) *Restorer {
	r := NewRestorer(store, "")
	r.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	r.newID = func() uuid.UUID { return uuid.MustParse("11111111-2222-3333-4444-555555555555") }
	return r
}

func TestRestorer_Restore(t *testing.T) {
	store := &mockStorage{}
	store.On("PutObject", mock.Anything,
		"restore-requests/conv-7/11111111-2222-3333-4444-555555555555.json",
		mock.AnythingOfType("int64"), "application/json").Return(nil)

	r := newTestRestorer(store)
	entry := srvmodels.EntryRow{ID: 9, ConversationID: "conv-7", MessageID: "msg-3", OriginalMessage: "ssn 123-45-6789"}

	key, err := r.Restore(context.Background(), entry, 4)
	require.NoError(t, err)
	assert.Equal(t, "restore-requests/conv-7/11111111-2222-3333-4444-555555555555.json", key)

	var got srvmodels.RestoreRequest
	require.NoError(t, json.Unmarshal(store.body, &got))
	assert.Equal(t, int64(9), got.EntryID)
	assert.Equal(t, "msg-3", got.MessageID)
	assert.Equal(t, "ssn 123-45-6789", got.OriginalMessage)
	assert.Equal(t, int64(4), got.RequestedBy)
	store.AssertExpectations(t)
}

func TestRestorer_StorageFailure(t *testing.T) {
	store := &mockStorage{}
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	key, err := newTestRestorer(store).Restore(context.Background(), srvmodels.EntryRow{ID: 1, ConversationID: "c"}, 1)
	require.Error(t, err)
	assert.Empty(t, key)
	assert.Contains(t, err.Error(), "entry 1")
}

func TestNewRestorer_CustomPrefix(t *testing.T) {
	r := NewRestorer(&mockStorage{}, "outbox")
	assert.Equal(t, "outbox", r.prefix)
}

func TestRestorer_KeyStaysUnderPrefix(t *testing.T) {
	tests := []struct {
		name           string
		conversationID string
		wantKey        string
	}{
		{"parent traversal", "../../x", "restore-requests/..%2F..%2Fx/11111111-2222-3333-4444-555555555555.json"},
		{"nested path", "a/b", "restore-requests/a%2Fb/11111111-2222-3333-4444-555555555555.json"},
		{"dot dot", "..", "restore-requests/%2E%2E/11111111-2222-3333-4444-555555555555.json"},
		{"single dot", ".", "restore-requests/%2E/11111111-2222-3333-4444-555555555555.json"},
		{"empty", "", "restore-requests/_/11111111-2222-3333-4444-555555555555.json"},
		{"space", "conv 1", "restore-requests/conv%201/11111111-2222-3333-4444-555555555555.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStorage{}
			store.On("PutObject", mock.Anything, tt.wantKey, mock.AnythingOfType("int64"), "application/json").
				Return(nil).Once()

			key, err := newTestRestorer(store).Restore(context.Background(),
				srvmodels.EntryRow{ID: 2, ConversationID: tt.conversationID}, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			store.AssertExpectations(t)
		})
	}
}
