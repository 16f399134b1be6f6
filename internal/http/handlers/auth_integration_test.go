package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/erp-portal/internal/auth"
	"github.com/hongminglow/erp-portal/internal/middleware"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/revoke"
	"github.com/hongminglow/erp-portal/internal/storage/postgres"
)

// TestAuthIntegration exercises register/login/profile against a live Postgres.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	tokens := auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), mustGetEnv(t, "JWT_ISSUER"), mustGetTTL(t))
	revoked := revoke.NewMemory()
	authn := middleware.NewAuthenticator(tokens, revoked)

	mux := http.NewServeMux()
	NewAuthHandler(store, tokens, authn, revoked, nil, nil).Register(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()
	api := &testAPI{srv: ts, tokens: tokens}

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	password := fmt.Sprintf("Pass%d", time.Now().UnixNano())

	resp := api.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: username, Password: password, ConfirmPassword: password, Role: models.RoleBuyer,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decode[dto.AuthResponse](t, resp)
	require.NotNil(t, registered.UserInfo)

	loggedIn := api.login(t, username, password)
	require.NotNil(t, loggedIn.UserInfo)
	assert.Equal(t, registered.UserInfo.ID, loggedIn.UserInfo.ID)
	assert.NotEmpty(t, strings.TrimSpace(loggedIn.Token))

	resp = api.do(t, http.MethodGet, "/api/auth/profile", loggedIn.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Logf("created user %s (id=%d) and logged in", username, loggedIn.UserInfo.ID)
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func mustGetTTL(t *testing.T) time.Duration {
	t.Helper()
	minutesStr := mustGetEnv(t, "JWT_TTL_MINUTES")
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes <= 0 {
		t.Fatalf("invalid JWT_TTL_MINUTES value: %q", minutesStr)
	}
	return time.Duration(minutes) * time.Minute
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
