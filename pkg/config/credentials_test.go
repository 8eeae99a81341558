package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestResolveAPIKeyFlagWins(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_API_KEY", "from-env")

	key, err := ResolveAPIKey("from-flag", Default())
	require.NoError(t, err)
	assert.Equal(t, "from-flag", key)
}

func TestResolveAPIKeyEnvBeatsKeychain(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(keyringService, keyringUser, "from-keychain"))
	t.Setenv("R7_API_KEY", "from-env")

	key, err := ResolveAPIKey("", Default())
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKeyKeychain(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_API_KEY", "")
	require.NoError(t, keyring.Set(keyringService, keyringUser, "from-keychain"))

	key, err := ResolveAPIKey("", Default())
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", key)
}

func TestResolveAPIKeyConfigFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_API_KEY", "")

	cfg := Default()
	cfg.APIKey = "from-file"
	cfg.APIKeySource = "file"

	key, err := ResolveAPIKey("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)
}

func TestResolveAPIKeyNone(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_API_KEY", "")

	_, err := ResolveAPIKey("", Default())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestStoreAPIKeyClearsFileFallback(t *testing.T) {
	keyring.MockInit()

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	cfg.APIKey = "stale"
	cfg.APIKeySource = "file"
	require.NoError(t, cfg.Save())

	require.NoError(t, StoreAPIKey("fresh", cfg))

	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.APIKeySource)
	got, err := keyring.Get(keyringService, keyringUser)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestDeleteAPIKey(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_API_KEY", "")
	require.NoError(t, keyring.Set(keyringService, keyringUser, "doomed"))

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, DeleteAPIKey(cfg))

	assert.False(t, HasStoredAPIKey(cfg))
	_, err = ResolveAPIKey("", cfg)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestVMPasswordRoundTrip(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_VM_PASSWORD", "")

	require.NoError(t, StoreVMPassword("s3cret"))
	got, err := ResolveVMPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, DeleteVMPassword())
	_, err = ResolveVMPassword()
	assert.Error(t, err)
}

func TestVMPasswordEnvOverride(t *testing.T) {
	keyring.MockInit()
	t.Setenv("R7_VM_PASSWORD", "from-env")

	got, err := ResolveVMPassword()
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
