package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "au", cfg.Region)
	assert.Equal(t, "table", cfg.DefaultOutput)
	assert.Equal(t, 3, cfg.MaxResultPages)
	assert.Equal(t, 300, cfg.QueryTimeout)
	assert.True(t, cfg.CacheEnabled)
	assert.True(t, cfg.VMVerifySSL)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Region, cfg.Region)
	assert.Equal(t, Default().CacheTTL, cfg.CacheTTL)
}

func TestLoadEmptyFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, Default().DefaultOutput, cfg.DefaultOutput)
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("region: [unclosed"), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	cfg.Region = "eu"
	cfg.MaxResultPages = 7
	cfg.OrganizationID = "c0ffee00-0000-0000-0000-000000000000"
	require.NoError(t, cfg.Save())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "eu", reloaded.Region)
	assert.Equal(t, 7, reloaded.MaxResultPages)
	assert.Equal(t, cfg.OrganizationID, reloaded.OrganizationID)
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestPartialFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("region: us\n"), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "us", cfg.Region)
	assert.Equal(t, Default().QueryTimeout, cfg.QueryTimeout)
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	cfg.Region = "ca"
	cfg.Verbose = true

	cfg.Reset()
	assert.Equal(t, "au", cfg.Region)
	assert.False(t, cfg.Verbose)
	require.NoError(t, cfg.Save())
	assert.FileExists(t, path)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad region", func(c *Config) { c.Region = "mars" }},
		{"bad output", func(c *Config) { c.DefaultOutput = "xml" }},
		{"zero pages", func(c *Config) { c.MaxResultPages = 0 }},
		{"short timeout", func(c *Config) { c.QueryTimeout = 5 }},
		{"negative ttl", func(c *Config) { c.CacheTTL = -1 }},
		{"negative max chars", func(c *Config) { c.MaxChars = -10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}
