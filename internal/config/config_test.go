package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL_MINUTES", "abc")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("APP_PRODUCTION", "")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.False(t, cfg.Production)
}

func TestLoadRejectsShortSecretInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("APP_PRODUCTION", "true")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("API_URL", "https://erp.example.com/api/")
	t.Setenv("SESSION_FILE", "/tmp/erp-session.json")
	t.Setenv("SEARCH_DEBOUNCE_MS", "")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com/api", cfg.APIURL)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/erp-session.json", cfg.SessionFile)
}

func TestLoadClientRejectsBadURL(t *testing.T) {
	t.Setenv("API_URL", "erp.example.com")
	_, err := LoadClient()
	assert.Error(t, err)
}
