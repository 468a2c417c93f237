package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/log"
)

func displayCreds() domain.DisplayCredentials {
	return domain.DisplayCredentials{CloudName: "demo", UploadPreset: "unsigned", Folder: "vacation"}
}

func TestCredentials_DisplayRoundTrip(t *testing.T) {
	creds := NewCredentials(NewMemoryBackend(), NewMemoryBackend(), nil, log.NullLogger())

	_, ok := creds.DisplayCredentials()
	require.False(t, ok)

	require.NoError(t, creds.SaveDisplayCredentials(displayCreds()))

	got, ok := creds.DisplayCredentials()
	require.True(t, ok)
	assert.Equal(t, "demo", got.CloudName)
	assert.Equal(t, "unsigned", got.UploadPreset)
	assert.Equal(t, "vacation", got.Folder)
}

func TestCredentials_SaveDisplayRejectsIncomplete(t *testing.T) {
	creds := NewCredentials(NewMemoryBackend(), NewMemoryBackend(), nil, log.NullLogger())

	err := creds.SaveDisplayCredentials(domain.DisplayCredentials{CloudName: "demo"})
	require.Error(t, err)

	var perr *domain.PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestCredentials_CorruptDisplayDegradesToAbsent(t *testing.T) {
	general := NewMemoryBackend()
	creds := NewCredentials(general, NewMemoryBackend(), nil, log.NullLogger())

	require.NoError(t, general.Set(keyDisplay, "{broken"))

	_, ok := creds.DisplayCredentials()
	assert.False(t, ok)
}

func TestCredentials_SecretRoundTripSecureBackend(t *testing.T) {
	general := NewMemoryBackend()
	secure := NewMemoryBackend()
	creds := NewCredentials(general, secure, func() bool { return true }, log.NullLogger())

	_, ok := creds.SecretCredentials()
	require.False(t, ok)

	require.NoError(t, creds.SaveSecretCredentials(domain.SecretCredentials{APIKey: "key123", APISecret: "sec456"}))

	got, ok := creds.SecretCredentials()
	require.True(t, ok)
	assert.Equal(t, "key123", got.APIKey)
	assert.Equal(t, "sec456", got.APISecret)

	// The general backend must not hold any secret material.
	assert.Equal(t, 0, general.Len())
}

func TestCredentials_PartialSecretPairIsAbsent(t *testing.T) {
	secure := NewMemoryBackend()
	creds := NewCredentials(NewMemoryBackend(), secure, func() bool { return true }, log.NullLogger())

	require.NoError(t, secure.Set(keySecretAPIKey, "key123"))

	_, ok := creds.SecretCredentials()
	assert.False(t, ok, "one value without the other is absent")
}

func TestCredentials_FallbackTierIsolation(t *testing.T) {
	general := NewMemoryBackend()
	secure := NewMemoryBackend()
	creds := NewCredentials(general, secure, func() bool { return false }, log.NullLogger())

	require.NoError(t, creds.SaveSecretCredentials(domain.SecretCredentials{APIKey: "key123", APISecret: "sec456"}))

	got, ok := creds.SecretCredentials()
	require.True(t, ok)
	assert.Equal(t, "key123", got.APIKey)

	// Fallback writes land under the distinct insecure namespace.
	_, ok = general.Get(keyFallbackAPIKey)
	assert.True(t, ok)
	_, ok = general.Get(keyFallbackAPISec)
	assert.True(t, ok)

	// The secure backend's namespace stays untouched.
	assert.Equal(t, 0, secure.Len())
	_, ok = general.Get(keySecretAPIKey)
	assert.False(t, ok, "fallback must not reuse the secure key names")
}

func TestCredentials_ProbeRunsOnce(t *testing.T) {
	calls := 0
	creds := NewCredentials(NewMemoryBackend(), NewMemoryBackend(), func() bool {
		calls++
		return true
	}, log.NullLogger())

	require.NoError(t, creds.SaveSecretCredentials(domain.SecretCredentials{APIKey: "k", APISecret: "s"}))
	creds.SecretCredentials()
	creds.SecretCredentials()

	assert.Equal(t, 1, calls, "availability probe is memoized for the process lifetime")
}

func TestCredentials_ClearAllWipesBothTiersAndBackends(t *testing.T) {
	general := NewMemoryBackend()
	secure := NewMemoryBackend()

	// Simulate a fallback-era write lingering next to a secure-era one.
	require.NoError(t, general.Set(keyFallbackAPIKey, "old"))
	require.NoError(t, general.Set(keyFallbackAPISec, "old"))
	require.NoError(t, secure.Set(keySecretAPIKey, "new"))
	require.NoError(t, secure.Set(keySecretAPISec, "new"))

	creds := NewCredentials(general, secure, func() bool { return true }, log.NullLogger())
	require.NoError(t, creds.SaveDisplayCredentials(displayCreds()))

	creds.ClearAll()

	_, ok := creds.DisplayCredentials()
	assert.False(t, ok)
	assert.Equal(t, 0, general.Len())
	assert.Equal(t, 0, secure.Len())
}
