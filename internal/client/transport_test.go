package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/erp-portal/internal/guard"
	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/session"
)

type recordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *recordingNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *recordingNavigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

func loggedInStore(t *testing.T, token, role string) *session.Store {
	t.Helper()
	s := session.NewStore()
	require.NoError(t, s.SetSession(token, time.Now().Add(time.Hour), models.UserProfile{ID: 7, Username: "jdupont", Role: role}))
	return s
}

// echoAuth answers with the Authorization headers it received, one per line.
func echoAuth(status int, expired bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if expired {
			w.Header().Set(respond.TokenExpiredHeader, "true")
		}
		w.Header().Set("X-Auth-Count", strings.Repeat("x", len(r.Header.Values("Authorization"))))
		w.Header().Set("X-Auth", strings.Join(r.Header.Values("Authorization"), "\n"))
		w.WriteHeader(status)
	}
}

func roundTrip(t *testing.T, rt http.RoundTripper, url string, header string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthTransportAddsBearerWhenMissing(t *testing.T) {
	srv := httptest.NewServer(echoAuth(http.StatusOK, false))
	defer srv.Close()
	rt := &AuthTransport{Sessions: loggedInStore(t, "tok-123", models.RoleVendor)}

	resp := roundTrip(t, rt, srv.URL, "")
	assert.Equal(t, "x", resp.Header.Get("X-Auth-Count"))
	assert.Equal(t, "Bearer tok-123", resp.Header.Get("X-Auth"))
}

func TestAuthTransportKeepsExistingHeader(t *testing.T) {
	srv := httptest.NewServer(echoAuth(http.StatusOK, false))
	defer srv.Close()
	rt := &AuthTransport{Sessions: loggedInStore(t, "tok-123", models.RoleVendor)}

	resp := roundTrip(t, rt, srv.URL, "Bearer caller-token")
	assert.Equal(t, "x", resp.Header.Get("X-Auth-Count"))
	assert.Equal(t, "Bearer caller-token", resp.Header.Get("X-Auth"))
}

func TestAuthTransportWithoutSessionSendsNoHeader(t *testing.T) {
	srv := httptest.NewServer(echoAuth(http.StatusOK, false))
	defer srv.Close()
	rt := &AuthTransport{Sessions: session.NewStore()}

	resp := roundTrip(t, rt, srv.URL, "")
	assert.Empty(t, resp.Header.Get("X-Auth-Count"))
}

func TestAuthTransportDoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(echoAuth(http.StatusOK, false))
	defer srv.Close()
	rt := &AuthTransport{Sessions: loggedInStore(t, "tok-123", models.RoleVendor)}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAuthTransportUnauthorizedClearsSessionAndNavigatesOnce(t *testing.T) {
	for _, expired := range []bool{false, true} {
		srv := httptest.NewServer(echoAuth(http.StatusUnauthorized, expired))
		sessions := loggedInStore(t, "tok-123", models.RoleAdmin)
		nav := &recordingNavigator{}
		rt := &AuthTransport{Sessions: sessions, Navigator: nav}

		resp := roundTrip(t, rt, srv.URL, "")
		srv.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, sessions.Token())
		assert.False(t, sessions.IsAuthenticated())
		assert.Nil(t, sessions.CurrentUser())
		assert.Equal(t, []string{guard.LoginRoute}, nav.Targets())
	}
}

func TestAuthTransportForbiddenKeepsSession(t *testing.T) {
	srv := httptest.NewServer(echoAuth(http.StatusForbidden, false))
	defer srv.Close()
	sessions := loggedInStore(t, "tok-123", models.RoleVendor)
	nav := &recordingNavigator{}
	rt := &AuthTransport{Sessions: sessions, Navigator: nav}

	resp := roundTrip(t, rt, srv.URL, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, sessions.IsAuthenticated())
	assert.Empty(t, nav.Targets())
}

func TestAuthTransportNotifiesSubscribersOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(echoAuth(http.StatusUnauthorized, true))
	defer srv.Close()
	sessions := loggedInStore(t, "tok-123", models.RoleVendor)

	var states []session.State
	unsubscribe := sessions.Subscribe(func(s session.State) { states = append(states, s) })
	defer unsubscribe()

	roundTrip(t, &AuthTransport{Sessions: sessions}, srv.URL, "")
	require.Len(t, states, 1)
	assert.False(t, states[0].IsAuthenticated)
	assert.Nil(t, states[0].User)
}
