package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/erp-portal/internal/auth"
	"github.com/hongminglow/erp-portal/internal/client"
	"github.com/hongminglow/erp-portal/internal/config"
	"github.com/hongminglow/erp-portal/internal/guard"
	"github.com/hongminglow/erp-portal/internal/metrics"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/revoke"
	"github.com/hongminglow/erp-portal/internal/server"
	"github.com/hongminglow/erp-portal/internal/session"
	"github.com/hongminglow/erp-portal/internal/storage/memory"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, server.SeedAdmin(ctx, store, "secret123"))
	hash, err := auth.HashPassword("Compta2026")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, models.User{Username: "compta", Role: models.RoleAccountant, PasswordHash: hash})
	require.NoError(t, err)
	for i := 1; i <= 12; i++ {
		_, err := store.CreateClient(ctx, models.Client{Code: fmt.Sprintf("C%02d", i), Name: fmt.Sprintf("Client %02d", i), City: "Lyon"})
		require.NoError(t, err)
	}
	srv := httptest.NewServer(server.Handler(config.Config{
		JWTSecret: "cli-test-secret", JWTIssuer: "erp-test", JWTTTL: time.Hour,
		CORSOrigins: []string{"*"}, LoginRatePerMinute: 1000,
	}, store, revoke.NewMemory(), metrics.New()))
	t.Cleanup(srv.Close)

	cfg := config.ClientConfig{
		APIURL:         srv.URL + "/api",
		SessionFile:    t.TempDir() + "/session.json",
		HTTPTimeout:    5 * time.Second,
		SearchDebounce: 10 * time.Millisecond,
	}
	sessions := session.NewStore(session.WithPersister(session.NewFilePersister(cfg.SessionFile)))
	router := guard.NewRouter(sessions, guard.DefaultRoutes(), zerolog.Nop())
	c := client.New(cfg.APIURL, sessions, router, client.WithTimeout(cfg.HTTPTimeout))

	var out bytes.Buffer
	return &app{
		cfg:      cfg,
		sessions: sessions,
		router:   router,
		auth:     client.NewAuthService(c, sessions),
		clients:  client.NewClientService(c),
		logger:   zerolog.Nop(),
		stdin:    strings.NewReader(""),
		out:      &out,
	}, &out
}

func TestLoginWhoamiLogout(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"login", "-u", "admin", "-p", "secret123"}))
	assert.Contains(t, out.String(), "Connecté en tant que admin (Admin)")
	assert.Equal(t, guard.DashboardRoute, a.router.Current())

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"whoami"}))
	assert.Contains(t, out.String(), "Admin")

	require.NoError(t, a.run(ctx, []string{"logout"}))
	assert.False(t, a.sessions.IsAuthenticated())

	err := a.run(ctx, []string{"whoami"})
	assert.Equal(t, 401, client.StatusCode(err))
}

func TestSessionSurvivesRestart(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.run(context.Background(), []string{"login", "-u", "admin", "-p", "secret123"}))

	restored := session.NewStore(session.WithPersister(session.NewFilePersister(a.cfg.SessionFile)))
	assert.True(t, restored.IsAdmin())
}

func TestClientsListing(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, []string{"login", "-u", "admin", "-p", "secret123"}))

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"clients", "-page", "2", "-size", "5"}))
	assert.Contains(t, out.String(), "Page 2/3, 12 client(s)  [précédente]  [suivante]")
}

func TestClientsRequiresLogin(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.run(context.Background(), []string{"clients"})
	require.Error(t, err)
	assert.Contains(t, client.UserMessage(err), "erpctl login")
}

func TestSearchPrintsLastTerm(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, []string{"login", "-u", "admin", "-p", "secret123"}))

	a.stdin = strings.NewReader("C0\nC1\n")
	out.Reset()
	require.NoError(t, a.run(ctx, []string{"search"}))
	assert.Equal(t, 1, strings.Count(out.String(), "« C1 »"))
	assert.Contains(t, out.String(), "Page 1/1, 3 client(s)")
	assert.NotContains(t, out.String(), "« C0 »")
}

// slowEOF hands out its content, then holds end of input back for a while.
type slowEOF struct {
	r    io.Reader
	hold time.Duration
}

func (s *slowEOF) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err == io.EOF {
		time.Sleep(s.hold)
	}
	return n, err
}

func TestSearchShowsSettledTermOnce(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, []string{"login", "-u", "admin", "-p", "secret123"}))

	a.stdin = &slowEOF{r: strings.NewReader("C1\n"), hold: 200 * time.Millisecond}
	out.Reset()
	require.NoError(t, a.run(ctx, []string{"search"}))
	assert.Equal(t, 1, strings.Count(out.String(), "« C1 »"))
}

func TestAccountantCanListClients(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, []string{"login", "-u", "compta", "-p", "Compta2026"}))

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"clients"}))
	assert.Contains(t, out.String(), "12 client(s)")

	err := a.run(ctx, []string{"client-add", "-code", "X1", "-name", "Refusé"})
	assert.Equal(t, 403, client.StatusCode(err))
}

func TestLoginReturnsToRequestedScreen(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	a.router.Navigate("/hr/employees")
	require.Equal(t, guard.LoginURL("/hr/employees"), a.router.Current())

	require.NoError(t, a.run(ctx, []string{"login", "-u", "admin", "-p", "secret123"}))
	assert.Equal(t, "/hr/employees", a.router.Current())
}

func TestAfterLogin(t *testing.T) {
	assert.Equal(t, guard.DashboardRoute, afterLogin(""))
	assert.Equal(t, guard.DashboardRoute, afterLogin(guard.LoginRoute))
	assert.Equal(t, guard.DashboardRoute, afterLogin("/profile"))
	assert.Equal(t, "/sales/orders", afterLogin(guard.LoginURL("/sales/orders")))
	assert.Equal(t, guard.DashboardRoute, afterLogin(guard.LoginURL("https://evil.example.com")))
}

func TestOpenShowsGuardOutcome(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, a.run(context.Background(), []string{"open", "/hr/employees"}))
	assert.Contains(t, out.String(), "/hr/employees -> /auth/login?returnUrl=%2Fhr%2Femployees")
	assert.Contains(t, out.String(), "retour après connexion : /hr/employees")
}

func TestUnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)
	assert.ErrorIs(t, a.run(context.Background(), []string{"frobnicate"}), errUsage)
}
