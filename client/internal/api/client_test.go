package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/models"
)

type staticCreds string

func (s staticCreds) Credential() (string, bool) {
	return string(s), s != ""
}

const testToken = "test-jwt-token"

func newClient(t *testing.T, handler http.HandlerFunc) api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return api.NewHTTPClient(server.URL, time.Second, staticCreds(testToken))
}

func TestHTTPClient_Login(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal("/api/v1/auth/login", r.URL.Path)
		assert.Empty(r.Header.Get("Authorization"))

		var req models.LoginRequest
		assert.NoError(json.NewDecoder(r.Body).Decode(&req))
		assert.Equal("alice", req.Username)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.LoginResponse{
			AccessToken: "tok",
			User:        models.User{ID: 3, Username: "alice"},
		})
	})

	resp, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(err)
	assert.Equal("tok", resp.AccessToken)
	assert.Equal("alice", resp.User.Username)
}

func TestHTTPClient_Login_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "bad credentials", status: http.StatusUnauthorized, wantErr: api.ErrAuth},
		{name: "server error", status: http.StatusInternalServerError, wantErr: api.ErrTransport},
		{name: "empty token", status: http.StatusOK, body: `{"access_token":""}`, wantErr: api.ErrTransport},
		{name: "broken json", status: http.StatusOK, body: `{"access_token`, wantErr: api.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := client.Login(context.Background(), "alice", "secret")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
		})
	}
}

func TestHTTPClient_Register(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	})
	require.NoError(t, client.Register(context.Background(), "bob", "pw"))

	conflict := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "user already exists", http.StatusConflict)
	})
	err := conflict.Register(context.Background(), "bob", "pw")
	require.ErrorIs(t, err, api.ErrConflict)
	assert.Contains(t, err.Error(), "user already exists")
}

func TestHTTPClient_ListEntries(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodGet, r.Method)
		assert.Equal("/api/v1/vault/entries", r.URL.Path)
		assert.Equal("2", r.URL.Query().Get("page"))
		assert.Equal("10", r.URL.Query().Get("page_size"))
		assert.Equal("Bearer "+testToken, r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(models.Page{
			Items:    []models.VaultEntry{{ID: 11, ConfidenceScore: 0.9}},
			Page:     2,
			PageSize: 10,
			Total:    25,
		})
	})

	page, err := client.ListEntries(context.Background(), 2, 10)
	require.NoError(err)
	assert.Equal(2, page.Page)
	assert.Equal(3, page.TotalPages())
	require.Len(page.Items, 1)
	assert.Equal(int64(11), page.Items[0].ID)
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnauthorized, api.ErrAuth},
		{http.StatusForbidden, api.ErrAuth},
		{http.StatusConflict, api.ErrConflict},
		{http.StatusBadRequest, api.ErrValidation},
		{http.StatusUnprocessableEntity, api.ErrValidation},
		{http.StatusNotFound, api.ErrNotFound},
		{http.StatusInternalServerError, api.ErrTransport},
		{http.StatusBadGateway, api.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.RevertEntry(context.Background(), 5)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPClient_EntryCommands(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	var gotPath string
	var gotFeedback models.FeedbackRequest
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(http.MethodPost, r.Method)
		if r.URL.Path == "/api/v1/vault/entries/7/feedback" {
			assert.Equal("application/json", r.Header.Get("Content-Type"))
			assert.NoError(json.NewDecoder(r.Body).Decode(&gotFeedback))
		}
		_ = json.NewEncoder(w).Encode(models.VaultEntry{ID: 7, IsArchived: true})
	})
	ctx := context.Background()

	entry, err := client.ArchiveEntry(ctx, 7)
	require.NoError(err)
	assert.Equal("/api/v1/vault/entries/7/archive", gotPath)
	assert.True(entry.IsArchived)

	_, err = client.SubmitFeedback(ctx, 7, models.FeedbackRequest{
		IsPositive:    false,
		FeedbackNotes: "missed a phone number",
		ReviewedBy:    "alice",
	})
	require.NoError(err)
	assert.Equal("/api/v1/vault/entries/7/feedback", gotPath)
	assert.Equal("alice", gotFeedback.ReviewedBy)
	assert.False(gotFeedback.IsPositive)

	_, err = client.RevertEntry(ctx, 7)
	require.NoError(err)
	assert.Equal("/api/v1/vault/entries/7/revert", gotPath)
}

func TestHTTPClient_GetEntry(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		if r.URL.Path != "/api/v1/vault/entries/7" {
			http.Error(w, "Entry not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(models.VaultEntry{ID: 7, Reverted: true})
	})

	entry, err := client.GetEntry(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, entry.Reverted)

	_, err = client.GetEntry(context.Background(), 8)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestHTTPClient_RefreshToken(t *testing.T) {
	t.Run("new token", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/auth/refresh", r.URL.Path)
			assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(models.LoginResponse{
				AccessToken: "fresh",
				User:        models.User{ID: 3, Username: "alice", Role: models.RoleReviewer},
			})
		})

		resp, err := client.RefreshToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", resp.AccessToken)
		assert.Equal(t, models.RoleReviewer, resp.User.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
		})

		_, err := client.RefreshToken(context.Background())
		require.ErrorIs(t, err, api.ErrAuth)
	})

	t.Run("empty token", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(models.LoginResponse{})
		})

		_, err := client.RefreshToken(context.Background())
		require.ErrorIs(t, err, api.ErrTransport)
	})
}

func TestHTTPClient_NoCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		assert.Fail(t, "request without credential must not be sent")
	}))
	defer server.Close()

	anonymous := api.NewHTTPClient(server.URL, time.Second, nil)
	_, err := anonymous.ListEntries(context.Background(), 1, 10)
	require.ErrorIs(t, err, api.ErrAuth)

	empty := anonymous.WithCredentials(staticCreds(""))
	_, err = empty.RevertEntry(context.Background(), 1)
	require.ErrorIs(t, err, api.ErrAuth)
}

func TestHTTPClient_WithCredentials(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.Stats{TotalEntries: 4})
	}))
	defer server.Close()

	first := api.NewHTTPClient(server.URL, time.Second, staticCreds("one"))
	second := first.WithCredentials(staticCreds("two"))

	_, err := second.GetStats(context.Background())
	require.NoError(t, err)
	stats, err := first.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer two", "Bearer one"}, seen)
	assert.Equal(t, 4, stats.TotalEntries)
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := api.NewHTTPClient(server.URL, 20*time.Millisecond, staticCreds(testToken))
	_, err := client.ListEntries(context.Background(), 1, 10)
	require.ErrorIs(t, err, api.ErrTransport)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := api.NewHTTPClient(url, time.Second, staticCreds(testToken))
	_, err := client.ArchiveEntry(context.Background(), 1)
	require.ErrorIs(t, err, api.ErrTransport)
}
