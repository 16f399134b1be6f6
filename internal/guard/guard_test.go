package guard

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/session"
)

func authenticated(role string) session.State {
	return session.State{
		IsAuthenticated: true,
		Token:           "abc",
		User:            &models.UserProfile{ID: 1, Username: "u", Role: role},
	}
}

func TestRequireAuthRedirectsAnonymousToLoginWithReturnURL(t *testing.T) {
	for _, attempted := range []string{"/dashboard", "/clients/42/edit", "/accounting/journal?from=2026-01-01&to=2026-01-31", "/"} {
		d := RequireAuth(session.State{}, attempted, nil)
		require.Equal(t, Redirect, d.Kind, attempted)

		u, err := url.Parse(d.Target)
		require.NoError(t, err)
		assert.Equal(t, LoginRoute, u.Path)
		assert.Equal(t, attempted, u.Query().Get(ReturnURLParam))
	}
}

func TestRequireAuthRoles(t *testing.T) {
	vendor := authenticated(models.RoleVendor)

	assert.Equal(t, Decision{Kind: Redirect, Target: DashboardRoute}, RequireAuth(vendor, "/admin/users", []string{models.RoleAdmin}))
	assert.True(t, RequireAuth(vendor, "/clients", []string{models.RoleVendor, models.RoleAdmin}).Allowed())
	assert.True(t, RequireAuth(vendor, "/clients", []string{"vendeur"}).Allowed())
	assert.True(t, RequireAuth(vendor, "/dashboard", nil).Allowed())
	assert.True(t, RequireAuth(vendor, "/dashboard", []string{}).Allowed())
}

func TestGuestOnly(t *testing.T) {
	assert.True(t, GuestOnly(session.State{}).Allowed())
	for _, role := range models.Roles() {
		d := GuestOnly(authenticated(role))
		assert.Equal(t, Decision{Kind: Redirect, Target: DashboardRoute}, d)
	}
}

func TestReturnURL(t *testing.T) {
	assert.Equal(t, "/clients?page=2", ReturnURL(LoginURL("/clients?page=2")))
	assert.Equal(t, DashboardRoute, ReturnURL(LoginRoute))
	assert.Equal(t, DashboardRoute, ReturnURL(LoginURL("https://evil.example.com")))
	assert.Equal(t, DashboardRoute, ReturnURL(LoginURL("//evil.example.com")))
	assert.Equal(t, DashboardRoute, ReturnURL(LoginURL(LoginURL("/x"))))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect", Redirect.String())
}
