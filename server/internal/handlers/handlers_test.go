package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/redactvault/models"
	"github.com/maynagashev/redactvault/server/internal/handlers"
	"github.com/maynagashev/redactvault/server/internal/middleware"
	"github.com/maynagashev/redactvault/server/internal/services"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1) //nolint:errcheck // mock
}

func (m *mockAuthService) Me(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1) //nolint:errcheck // mock
}

func (m *mockAuthService) Refresh(ctx context.Context, username string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1) //nolint:errcheck // mock
}

type mockVaultService struct {
	mock.Mock
}

func (m *mockVaultService) List(ctx context.Context, page, pageSize int) (*models.Page, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page), args.Error(1) //nolint:errcheck // mock
}

func (m *mockVaultService) Get(ctx context.Context, id int64) (*models.VaultEntry, error) {
	return m.entry(m.Called(ctx, id))
}

func (m *mockVaultService) Create(ctx context.Context, req *models.CreateEntryRequest) (*models.VaultEntry, error) {
	return m.entry(m.Called(ctx, req))
}

func (m *mockVaultService) Archive(ctx context.Context, id int64) (*models.VaultEntry, error) {
	return m.entry(m.Called(ctx, id))
}

func (m *mockVaultService) SubmitFeedback(
	ctx context.Context,
	id int64,
	req models.FeedbackRequest,
) (*models.VaultEntry, error) {
	return m.entry(m.Called(ctx, id, req))
}

func (m *mockVaultService) Revert(ctx context.Context, id, userID int64) (*models.VaultEntry, error) {
	return m.entry(m.Called(ctx, id, userID))
}

func (m *mockVaultService) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1) //nolint:errcheck // mock
}

func (m *mockVaultService) entry(args mock.Arguments) (*models.VaultEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VaultEntry), args.Error(1) //nolint:errcheck // mock
}

func setupRouter(auth services.AuthService, vault services.VaultService, userID int64) http.Handler {
	ah := handlers.NewAuthHandler(auth)
	vh := handlers.NewVaultHandler(vault)

	r := chi.NewRouter()
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
				ctx = context.WithValue(ctx, middleware.UsernameKey, "alice")
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		r.Get("/auth/me", ah.Me)
		r.Post("/auth/refresh", ah.Refresh)
		r.Get("/vault/entries", vh.List)
		r.Get("/vault/entries/{id}", vh.Get)
		r.Post("/vault/entries", vh.Create)
		r.Post("/vault/entries/{id}/archive", vh.Archive)
		r.Post("/vault/entries/{id}/feedback", vh.Feedback)
		r.Post("/vault/entries/{id}/revert", vh.Revert)
		r.Get("/vault/stats", vh.Stats)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		callsSvc   bool
		wantStatus int
	}{
		{name: "created", body: `{"username":"alice","password":"pw"}`, callsSvc: true, wantStatus: http.StatusCreated},
		{name: "taken", body: `{"username":"alice","password":"pw"}`, callsSvc: true,
			serviceErr: services.ErrUsernameTaken, wantStatus: http.StatusConflict},
		{name: "broken json", body: `{"username":`, wantStatus: http.StatusBadRequest},
		{name: "empty password", body: `{"username":"alice","password":""}`, wantStatus: http.StatusBadRequest},
		{name: "internal", body: `{"username":"alice","password":"pw"}`, callsSvc: true,
			serviceErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(mockAuthService)
			if tt.callsSvc {
				auth.On("Register", mock.Anything, "alice", "pw").Return(tt.serviceErr).Once()
			}

			rr := do(t, setupRouter(auth, new(mockVaultService), 1), http.MethodPost, "/auth/register", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			auth.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns token and user", func(t *testing.T) {
		auth := new(mockAuthService)
		auth.On("Login", mock.Anything, "alice", "pw").Return(&models.LoginResponse{
			AccessToken: "tok", User: models.User{ID: 3, Username: "alice", PasswordHash: "secret-hash"},
		}, nil).Once()

		rr := do(t, setupRouter(auth, new(mockVaultService), 1), http.MethodPost, "/auth/login",
			`{"username":"alice","password":"pw"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.NotContains(t, rr.Body.String(), "secret-hash")

		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "tok", resp.AccessToken)
		assert.Equal(t, "alice", resp.User.Username)
	})

	t.Run("bad credentials", func(t *testing.T) {
		auth := new(mockAuthService)
		auth.On("Login", mock.Anything, "alice", "bad").Return(nil, services.ErrInvalidCredentials).Once()

		rr := do(t, setupRouter(auth, new(mockVaultService), 1), http.MethodPost, "/auth/login",
			`{"username":"alice","password":"bad"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	auth := new(mockAuthService)
	auth.On("Me", mock.Anything, "alice").Return(&models.User{
		ID: 3, Username: "alice", PasswordHash: "secret-hash", Role: models.RoleReviewer,
	}, nil).Once()

	rr := do(t, setupRouter(auth, new(mockVaultService), 3), http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret-hash")

	var user models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleReviewer, user.Role)
	auth.AssertExpectations(t)
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("new token", func(t *testing.T) {
		auth := new(mockAuthService)
		auth.On("Refresh", mock.Anything, "alice").Return(&models.LoginResponse{
			AccessToken: "fresh", User: models.User{ID: 3, Username: "alice"},
		}, nil).Once()

		rr := do(t, setupRouter(auth, new(mockVaultService), 3), http.MethodPost, "/auth/refresh", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "fresh", resp.AccessToken)
	})

	t.Run("user gone", func(t *testing.T) {
		auth := new(mockAuthService)
		auth.On("Refresh", mock.Anything, "alice").Return(nil, services.ErrInvalidCredentials).Once()

		rr := do(t, setupRouter(auth, new(mockVaultService), 3), http.MethodPost, "/auth/refresh", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestVaultHandler_Get(t *testing.T) {
	vault := new(mockVaultService)
	vault.On("Get", mock.Anything, int64(4)).Return(&models.VaultEntry{ID: 4, Reverted: true}, nil).Once()
	vault.On("Get", mock.Anything, int64(5)).Return(nil, services.ErrEntryNotFound).Once()
	h := setupRouter(new(mockAuthService), vault, 1)

	rr := do(t, h, http.MethodGet, "/vault/entries/4", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.VaultEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.True(t, got.Reverted)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/vault/entries/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/vault/entries/x", "").Code)
	vault.AssertExpectations(t)
}

func TestVaultHandler_List(t *testing.T) {
	vault := new(mockVaultService)
	page := &models.Page{Items: []models.VaultEntry{{ID: 1}}, Page: 2, PageSize: 5, Total: 6}
	vault.On("List", mock.Anything, 2, 5).Return(page, nil).Once()
	h := setupRouter(new(mockAuthService), vault, 1)

	rr := do(t, h, http.MethodGet, "/vault/entries?page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.Page
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 6, got.Total)
	assert.Equal(t, 2, got.TotalPages())

	rr = do(t, h, http.MethodGet, "/vault/entries?page=two", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	vault.AssertExpectations(t)
}

func TestVaultHandler_Commands(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		setup      func(v *mockVaultService)
		wantStatus int
	}{
		{
			name: "archive",
			path: "/vault/entries/4/archive",
			setup: func(v *mockVaultService) {
				v.On("Archive", mock.Anything, int64(4)).Return(&models.VaultEntry{ID: 4, IsArchived: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "archive reverted",
			path: "/vault/entries/4/archive",
			setup: func(v *mockVaultService) {
				v.On("Archive", mock.Anything, int64(4)).Return(nil, services.ErrEntryReverted)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "feedback",
			path: "/vault/entries/4/feedback",
			body: `{"is_positive":false,"feedback_notes":"missed a phone","reviewed_by":"alice"}`,
			setup: func(v *mockVaultService) {
				v.On("SubmitFeedback", mock.Anything, int64(4), models.FeedbackRequest{
					IsPositive: false, FeedbackNotes: "missed a phone", ReviewedBy: "alice",
				}).Return(&models.VaultEntry{ID: 4}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "feedback without reviewer",
			path: "/vault/entries/4/feedback",
			body: `{"is_positive":true,"feedback_notes":"","reviewed_by":""}`,
			setup: func(v *mockVaultService) {
				v.On("SubmitFeedback", mock.Anything, int64(4), mock.Anything).
					Return(nil, fmt.Errorf("%w: reviewed_by is required", services.ErrInvalidInput))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "revert uses caller id",
			path: "/vault/entries/4/revert",
			setup: func(v *mockVaultService) {
				v.On("Revert", mock.Anything, int64(4), int64(77)).Return(&models.VaultEntry{ID: 4, Reverted: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "second revert",
			path: "/vault/entries/4/revert",
			setup: func(v *mockVaultService) {
				v.On("Revert", mock.Anything, int64(4), int64(77)).Return(nil, services.ErrAlreadyReverted)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "upstream unavailable",
			path: "/vault/entries/4/revert",
			setup: func(v *mockVaultService) {
				v.On("Revert", mock.Anything, int64(4), int64(77)).Return(nil, services.ErrRestoreFailed)
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "missing entry",
			path: "/vault/entries/404/archive",
			setup: func(v *mockVaultService) {
				v.On("Archive", mock.Anything, int64(404)).Return(nil, services.ErrEntryNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad id",
			path:       "/vault/entries/abc/archive",
			setup:      func(*mockVaultService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vault := new(mockVaultService)
			tt.setup(vault)

			rr := do(t, setupRouter(new(mockAuthService), vault, 77), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			vault.AssertExpectations(t)
		})
	}
}

func TestVaultHandler_Create(t *testing.T) {
	vault := new(mockVaultService)
	vault.On("Create", mock.Anything, mock.MatchedBy(func(r *models.CreateEntryRequest) bool {
		return r.MessageID == "m-1" && r.RedactionCount == 2
	})).Return(&models.VaultEntry{ID: 12, MessageID: "m-1"}, nil).Once()

	rr := do(t, setupRouter(new(mockAuthService), vault, 1), http.MethodPost, "/vault/entries",
		`{"message_id":"m-1","conversation_id":"c-1","original_message":"a","redacted_message":"b",`+
			`"confidence_score":0.9,"redaction_count":2}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":12`)
}

func TestVaultHandler_Stats(t *testing.T) {
	vault := new(mockVaultService)
	vault.On("Stats", mock.Anything).Return(&models.Stats{TotalEntries: 3, FeedbackRatio: 0.5,
		AvgProcessingTime: "1.2s"}, nil).Once()

	rr := do(t, setupRouter(new(mockAuthService), vault, 1), http.MethodGet, "/vault/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total_entries":3,"total_redactions":0,"positive_feedback":0,"feedback_ratio":0.5,`+
		`"avg_processing_time":"1.2s"}`, rr.Body.String())
}
