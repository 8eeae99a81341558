package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "r7-cli"
	keyringUser    = "api-key"

	vmKeyringService = "r7-cli-vm"
	vmKeyringUser    = "vm-password"
)

// ErrNoAPIKey means no credential was found in any source.
var ErrNoAPIKey = errors.New("no api key configured, run `r7 config setup` or set R7_API_KEY")

// ResolveAPIKey returns the platform API key, checking sources in priority
// order: explicit flag value, R7_API_KEY environment variable, OS keychain,
// then the plaintext fallback in the config file.
func ResolveAPIKey(flagValue string, cfg *Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := strings.TrimSpace(os.Getenv("R7_API_KEY")); env != "" {
		return env, nil
	}
	secret, err := keyring.Get(keyringService, keyringUser)
	if err == nil && secret != "" {
		return secret, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Debug().Err(err).Msg("keychain unavailable, falling back to config file")
	}
	if cfg != nil && cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	return "", ErrNoAPIKey
}

// StoreAPIKey saves the key in the OS keychain. When no keychain backend is
// usable the key is written to the config file instead, with api_key_source
// marking where it ended up.
func StoreAPIKey(key string, cfg *Config) error {
	if err := keyring.Set(keyringService, keyringUser, key); err == nil {
		if cfg.APIKey != "" || cfg.APIKeySource == "file" {
			cfg.APIKey = ""
			cfg.APIKeySource = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		return nil
	}
	log.Warn().Msg("no usable keychain backend, storing api key in config file")
	cfg.APIKey = key
	cfg.APIKeySource = "file"
	return cfg.Save()
}

// DeleteAPIKey removes the key from every store it may live in.
func DeleteAPIKey(cfg *Config) error {
	kerr := keyring.Delete(keyringService, keyringUser)
	if kerr != nil && !errors.Is(kerr, keyring.ErrNotFound) {
		return fmt.Errorf("delete from keychain: %w", kerr)
	}
	if cfg != nil && cfg.APIKey != "" {
		cfg.APIKey = ""
		cfg.APIKeySource = ""
		return cfg.Save()
	}
	return nil
}

// HasStoredAPIKey reports whether a key is present without revealing it.
func HasStoredAPIKey(cfg *Config) bool {
	if secret, err := keyring.Get(keyringService, keyringUser); err == nil && secret != "" {
		return true
	}
	return cfg != nil && cfg.APIKey != ""
}

// ResolveVMPassword returns the InsightVM console password, checking
// R7_VM_PASSWORD then the OS keychain.
func ResolveVMPassword() (string, error) {
	if env := os.Getenv("R7_VM_PASSWORD"); env != "" {
		return env, nil
	}
	secret, err := keyring.Get(vmKeyringService, vmKeyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", errors.New("no vm console password stored, run `r7 vm setup` or set R7_VM_PASSWORD")
		}
		return "", fmt.Errorf("read vm password from keychain: %w", err)
	}
	return secret, nil
}

// StoreVMPassword saves the InsightVM console password in the OS keychain.
func StoreVMPassword(password string) error {
	return keyring.Set(vmKeyringService, vmKeyringUser, password)
}

// DeleteVMPassword removes the stored InsightVM console password.
func DeleteVMPassword() error {
	err := keyring.Delete(vmKeyringService, vmKeyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
