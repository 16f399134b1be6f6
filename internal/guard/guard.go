// Package guard decides whether a navigation may proceed. Decisions are pure
// functions over a session snapshot; performing the redirect is up to the caller.
package guard

import (
	"net/url"
	"strings"

	"github.com/hongminglow/erp-portal/internal/session"
)

const (
	LoginRoute     = "/auth/login"
	RegisterRoute  = "/auth/register"
	DashboardRoute = "/dashboard"
	ReturnURLParam = "returnUrl"
)

type Kind int

const (
	Allow Kind = iota
	Redirect
)

func (k Kind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the outcome of a guard. Target is set only for Redirect.
type Decision struct {
	Kind   Kind
	Target string
}

func (d Decision) Allowed() bool { return d.Kind == Allow }

func allow() Decision { return Decision{Kind: Allow} }

func redirect(target string) Decision { return Decision{Kind: Redirect, Target: target} }

// LoginURL is the login route carrying attempted as its returnUrl.
func LoginURL(attempted string) string {
	q := url.Values{}
	q.Set(ReturnURLParam, attempted)
	return LoginRoute + "?" + q.Encode()
}

// RequireAuth gates a protected route. roles == nil means any authenticated user.
func RequireAuth(state session.State, attemptedURL string, roles []string) Decision {
	if !state.IsAuthenticated || state.User == nil {
		return redirect(LoginURL(attemptedURL))
	}
	if len(roles) == 0 {
		return allow()
	}
	for _, r := range roles {
		if strings.EqualFold(r, state.User.Role) {
			return allow()
		}
	}
	return redirect(DashboardRoute)
}

// GuestOnly keeps authenticated users off screens like login and register.
func GuestOnly(state session.State) Decision {
	if state.IsAuthenticated {
		return redirect(DashboardRoute)
	}
	return allow()
}

// ReturnURL extracts a safe post-login destination from a login URL.
// Only same-site absolute paths are accepted; anything else yields the dashboard.
func ReturnURL(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return DashboardRoute
	}
	target := u.Query().Get(ReturnURLParam)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, LoginRoute) {
		return DashboardRoute
	}
	return target
}
