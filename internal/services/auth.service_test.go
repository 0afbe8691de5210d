package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthService_RoundTrip(t *testing.T) {
	auth, err := NewAuthService(testSecret, time.Hour, "", zerolog.Nop())
	require.NoError(t, err)

	token, expiresAt, err := auth.GenerateToken("dashboard")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.ClientName)
	assert.Equal(t, "pulse-server", claims.Issuer)
}

func TestAuthService_RejectsForeignKey(t *testing.T) {
	issuer, err := NewAuthService(testSecret, time.Hour, "", zerolog.Nop())
	require.NoError(t, err)
	verifier, err := NewAuthService(strings.Repeat("z", 40), time.Hour, "", zerolog.Nop())
	require.NoError(t, err)

	token, _, err := issuer.GenerateToken("dashboard")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsExpired(t *testing.T) {
	auth, err := NewAuthService(testSecret, time.Minute, "", zerolog.Nop())
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	auth.now = func() time.Time { return issued }
	token, _, err := auth.GenerateToken("dashboard")
	require.NoError(t, err)

	auth.now = time.Now
	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsGarbage(t *testing.T) {
	auth, err := NewAuthService(testSecret, time.Hour, "", zerolog.Nop())
	require.NoError(t, err)

	_, err = auth.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestAuthService_ShortSecret(t *testing.T) {
	_, err := NewAuthService("short", time.Hour, "", zerolog.Nop())
	assert.Error(t, err)
}

func TestAuthService_PersistsGeneratedKey(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "secret")

	first, err := NewAuthService("", time.Hour, keyFile, zerolog.Nop())
	require.NoError(t, err)

	data, err := os.ReadFile(keyFile)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(string(data)), 64)

	token, _, err := first.GenerateToken("dashboard")
	require.NoError(t, err)

	second, err := NewAuthService("", time.Hour, keyFile, zerolog.Nop())
	require.NoError(t, err)
	_, err = second.ValidateToken(token)
	assert.NoError(t, err, "a restarted service accepts earlier tokens")
}
