package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/erp-portal/internal/auth"
	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/revoke"
)

func newTestAuthenticator(t *testing.T, ttl time.Duration) (*Authenticator, *auth.TokenManager, *revoke.Memory) {
	t.Helper()
	tm := auth.NewTokenManager("middleware-secret", "erp-test", ttl)
	rv := revoke.NewMemory()
	return NewAuthenticator(tm, rv), tm, rv
}

func call(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAllowsMatchingRole(t *testing.T) {
	a, tm, _ := newTestAuthenticator(t, time.Hour)
	token, _, err := tm.Generate(models.User{ID: 3, Username: "vendeur1", Role: models.RoleVendor})
	require.NoError(t, err)

	var seen *auth.Claims
	h := a.Require(models.VendorOrAdmin, func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := call(h, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "vendeur1", seen.Username)
}

func TestRequireRejections(t *testing.T) {
	a, tm, rv := newTestAuthenticator(t, time.Hour)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	vendorToken, _, err := tm.Generate(models.User{ID: 3, Username: "v", Role: models.RoleVendor})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(a.Require(models.AuthenticatedUser, ok), "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(a.Require(models.AuthenticatedUser, ok), "garbage").Code)
	assert.Equal(t, http.StatusForbidden, call(a.Require(models.AdminOnly, ok), vendorToken).Code)

	claims, err := tm.Parse(vendorToken)
	require.NoError(t, err)
	require.NoError(t, rv.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, call(a.Require(models.AuthenticatedUser, ok), vendorToken).Code)
}

func TestRequireFlagsExpiredToken(t *testing.T) {
	a, _, _ := newTestAuthenticator(t, time.Hour)
	expired := auth.NewTokenManager("middleware-secret", "erp-test", -time.Minute)
	token, _, err := expired.Generate(models.User{ID: 1, Username: "a", Role: models.RoleAdmin})
	require.NoError(t, err)

	rec := call(a.Require(models.AuthenticatedUser, func(w http.ResponseWriter, r *http.Request) {}), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(respond.TokenExpiredHeader))
}
