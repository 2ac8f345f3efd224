package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/redactvault/models"
	"github.com/maynagashev/redactvault/server/internal/middleware"
	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
)

var testSecret = []byte("middleware-secret")

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims srvmodels.TokenClaims) string {
	t.Helper()
	var key interface{} = secret
	if method == jwt.SigningMethodNone {
		key = jwt.UnsafeAllowNoneSignatureType
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() srvmodels.TokenClaims {
	now := time.Now()
	return srvmodels.TokenClaims{
		UserID: 42,
		Role:   models.RoleReviewer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    srvmodels.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		wantID int64
		wantOK bool
	}{
		{name: "present", ctx: context.WithValue(context.Background(), middleware.UserIDKey, int64(123)),
			wantID: 123, wantOK: true},
		{name: "empty", ctx: context.Background()},
		{name: "wrong type", ctx: context.WithValue(context.Background(), middleware.UserIDKey, "123")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := middleware.GetUserIDFromContext(tt.ctx)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestAuthenticator(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	foreign := validClaims()
	foreign.Issuer = "someone-else"

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims()),
			wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims()),
			wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, []byte("other"), jwt.SigningMethodHS256, validClaims()),
			wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, expired),
			wantStatus: http.StatusUnauthorized},
		{name: "foreign issuer", header: "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, foreign),
			wantStatus: http.StatusUnauthorized},
		{name: "unsigned", header: "Bearer " + signToken(t, nil, jwt.SigningMethodNone, validClaims()),
			wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			var gotName, gotRole string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = middleware.GetUserIDFromContext(r.Context())
				gotName, _ = middleware.GetUsernameFromContext(r.Context())
				gotRole, _ = middleware.GetRoleFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/vault/entries", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			middleware.Authenticator(testSecret)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, int64(42), gotID)
				assert.Equal(t, "alice", gotName)
				assert.Equal(t, models.RoleReviewer, gotRole)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		perm       string
		wantStatus int
	}{
		{name: "reviewer reads", role: models.RoleReviewer, perm: models.PermVaultRead, wantStatus: http.StatusOK},
		{name: "reviewer reverts", role: models.RoleReviewer, perm: models.PermVaultRevert, wantStatus: http.StatusOK},
		{name: "reviewer creates", role: models.RoleReviewer, perm: models.PermVaultCreate,
			wantStatus: http.StatusForbidden},
		{name: "viewer reads", role: models.RoleViewer, perm: models.PermVaultRead, wantStatus: http.StatusOK},
		{name: "viewer gives feedback", role: models.RoleViewer, perm: models.PermVaultFeedback,
			wantStatus: http.StatusForbidden},
		{name: "admin creates", role: models.RoleAdmin, perm: models.PermVaultCreate, wantStatus: http.StatusOK},
		{name: "token without role", role: "", perm: models.PermVaultRead, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			claims.Role = tt.role
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			handler := middleware.Authenticator(testSecret)(middleware.RequirePermission(tt.perm)(next))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/vault/entries", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, claims))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}
