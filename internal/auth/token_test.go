package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/erp-portal/internal/models"
)

func TestGenerateAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret", "erp-test", time.Hour)
	emp := int64(7)

	token, exp, err := tm.Generate(models.User{ID: 42, Username: "admin", Role: models.RoleAdmin, EmployeeID: &emp})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, &emp, claims.EmployeeID)
	assert.NotEmpty(t, claims.ID)
}

func TestParseExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "erp-test", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.Generate(models.User{ID: 1, Username: "u", Role: models.RoleVendor})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsForeignSignatureAndIssuer(t *testing.T) {
	issuer := NewTokenManager("secret-a", "erp-test", time.Hour)
	token, _, err := issuer.Generate(models.User{ID: 1, Username: "u", Role: models.RoleVendor})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", "erp-test", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager("secret-a", "other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearer(t *testing.T) {
	tok, err := ExtractBearer("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = ExtractBearer("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, bad := range []string{"", "Bearer", "Bearer   ", "Basic abc"} {
		_, err := ExtractBearer(bad)
		assert.Error(t, err, bad)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
}
