package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshhighet/r7/pkg/config"
)

const testTenantPrefix = "aaaabbbb-cccc-dddd-eeee-ffff00001111-default-asset-"

func TestDetectTenantPrefix(t *testing.T) {
	assets := []map[string]any{
		{"id": testTenantPrefix + "11111111"},
		{"id": testTenantPrefix + "22222222"},
		{"id": testTenantPrefix + "33333333"},
	}
	assert.Equal(t, testTenantPrefix, detectTenantPrefix(assets))
}

func TestDetectTenantPrefixTooShort(t *testing.T) {
	assets := []map[string]any{
		{"id": "short-1"},
		{"id": "short-2"},
	}
	assert.Equal(t, "", detectTenantPrefix(assets))
}

func TestDetectTenantPrefixSingleAsset(t *testing.T) {
	assets := []map[string]any{{"id": testTenantPrefix + "11111111"}}
	assert.Equal(t, "", detectTenantPrefix(assets))
}

func TestDetectTenantPrefixNoCommon(t *testing.T) {
	assets := []map[string]any{
		{"id": "xxxx1111-aaaa-bbbb-cccc-dddd00001111-default-asset-1"},
		{"id": "yyyy2222-aaaa-bbbb-cccc-dddd00001111-default-asset-2"},
	}
	assert.Equal(t, "", detectTenantPrefix(assets))
}

func TestShortenAndExpandAssetID(t *testing.T) {
	cfg := &config.Config{VMTenantPrefix: testTenantPrefix}
	full := testTenantPrefix + "deadbeef"
	assert.Equal(t, "deadbeef", shortenAssetID(cfg, full))
	assert.Equal(t, full, expandAssetID(cfg, "deadbeef"))
	// Already-full ids pass through unchanged.
	assert.Equal(t, full, expandAssetID(cfg, full))

	empty := &config.Config{}
	assert.Equal(t, full, shortenAssetID(empty, full))
	assert.Equal(t, "deadbeef", expandAssetID(empty, "deadbeef"))
}

func TestConsoleAssetHost(t *testing.T) {
	assert.Equal(t, "web01", consoleAssetHost(map[string]any{"hostName": "web01"}))
	assert.Equal(t, "db01", consoleAssetHost(map[string]any{
		"hostNames": []any{map[string]any{"name": "db01", "source": "dns"}},
	}))
	assert.Equal(t, "", consoleAssetHost(map[string]any{}))
}

func TestConsoleAssetIPs(t *testing.T) {
	asset := map[string]any{
		"ip": "10.0.0.1",
		"addresses": []any{
			map[string]any{"ip": "10.0.0.1"},
			map[string]any{"ip": "10.0.0.2"},
			map[string]any{"ip": "10.0.0.3"},
			map[string]any{"ip": "10.0.0.4"},
		},
	}
	assert.Equal(t, "10.0.0.1, 10.0.0.2, 10.0.0.3", consoleAssetIPs(asset))
	assert.Equal(t, "", consoleAssetIPs(map[string]any{}))
}

func TestConsoleAssetOS(t *testing.T) {
	assert.Equal(t, "Ubuntu Linux 22.04", consoleAssetOS(map[string]any{"os": "Ubuntu Linux 22.04"}))
	assert.Equal(t, "Windows Server 2022", consoleAssetOS(map[string]any{
		"osFingerprint": map[string]any{"description": "Windows Server 2022"},
	}))
	assert.Equal(t, "Linux", consoleAssetOS(map[string]any{
		"osFingerprint": map[string]any{"product": "Linux"},
	}))
	assert.Equal(t, "", consoleAssetOS(map[string]any{}))
}

func TestFilterFindings(t *testing.T) {
	findings := []map[string]any{
		{
			"id":     "ssl-weak-ciphers",
			"status": "vulnerable",
			"results": []any{
				map[string]any{"port": float64(443), "protocol": "tcp"},
			},
		},
		{
			"id":     "ssh-weak-kex",
			"status": "invulnerable",
			"results": []any{
				map[string]any{"port": float64(22), "protocol": "tcp"},
			},
		},
	}

	out := filterFindings(findings, "vulnerable", "", 0, "")
	assert.Len(t, out, 1)
	assert.Equal(t, "ssl-weak-ciphers", out[0]["id"])

	out = filterFindings(findings, "", "ssh", 0, "")
	assert.Len(t, out, 1)
	assert.Equal(t, "ssh-weak-kex", out[0]["id"])

	out = filterFindings(findings, "", "", 443, "tcp")
	assert.Len(t, out, 1)
	assert.Equal(t, "ssl-weak-ciphers", out[0]["id"])

	out = filterFindings(findings, "", "", 8080, "")
	assert.Empty(t, out)

	out = filterFindings(findings, "", "", 0, "")
	assert.Len(t, out, 2)
}
