package guard

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hongminglow/erp-portal/internal/session"
)

// Navigator performs navigations requested outside the router, e.g. by the HTTP interceptor.
type Navigator interface {
	Navigate(target string)
}

// GuardType selects the guard a route is protected by.
type GuardType int

const (
	Public GuardType = iota
	Authenticated
	Guest
)

// Route is one entry of the route table. Pattern is a path; a trailing "/*" matches any suffix.
type Route struct {
	Pattern string
	Guard   GuardType
	Roles   []string
}

func (r Route) matches(path string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

const maxRedirects = 5

// SnapshotSource is satisfied by *session.Store.
type SnapshotSource interface {
	Snapshot() session.State
}

// Router resolves navigations against the route table and tracks the current location.
type Router struct {
	mu       sync.Mutex
	routes   []Route
	sessions SnapshotSource
	current  string
	history  []string
	logger   zerolog.Logger
}

func NewRouter(sessions SnapshotSource, routes []Route, logger zerolog.Logger) *Router {
	return &Router{sessions: sessions, routes: routes, logger: logger}
}

// Decide evaluates the guard of the route matching target without navigating.
// Unknown routes are allowed; the caller renders its own not-found screen.
func (r *Router) Decide(target string) Decision {
	route, ok := r.match(target)
	if !ok {
		return allow()
	}
	state := r.sessions.Snapshot()
	switch route.Guard {
	case Authenticated:
		return RequireAuth(state, target, route.Roles)
	case Guest:
		return GuestOnly(state)
	default:
		return allow()
	}
}

// Resolve follows redirects from target and returns where navigation lands.
func (r *Router) Resolve(target string) (string, error) {
	seen := target
	for i := 0; i < maxRedirects; i++ {
		d := r.Decide(seen)
		if d.Allowed() {
			return seen, nil
		}
		r.logger.Debug().Str("from", seen).Str("to", d.Target).Msg("navigation redirected")
		seen = d.Target
	}
	return "", fmt.Errorf("navigation to %q: too many redirects", target)
}

// Navigate resolves target and moves there. Failed resolutions leave the location unchanged.
func (r *Router) Navigate(target string) {
	final, err := r.Resolve(target)
	if err != nil {
		r.logger.Error().Err(err).Msg("navigation aborted")
		return
	}
	r.mu.Lock()
	r.current = final
	r.history = append(r.history, final)
	r.mu.Unlock()
}

// Current returns the location after the last successful navigation.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns every location navigated to, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

func (r *Router) match(target string) (Route, bool) {
	path := target
	if u, err := url.Parse(target); err == nil {
		path = u.Path
	}
	for _, route := range r.routes {
		if route.matches(path) {
			return route, true
		}
	}
	return Route{}, false
}
