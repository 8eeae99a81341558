package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/cache"
	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
	"github.com/joshhighet/r7/pkg/vmconsole"
)

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagRegion != "" {
		cfg.Region = flagRegion
	}
	if flagOrgID != "" {
		cfg.OrganizationID = flagOrgID
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openCache opens the sqlite response cache when caching is on. A nil
// store disables caching downstream.
func openCache(cfg *config.Config) *cache.Store {
	if !cfg.CacheEnabled {
		return nil
	}
	path, err := cache.DefaultPath()
	if err != nil {
		log.Debug().Err(err).Msg("cache path unavailable, caching disabled")
		return nil
	}
	store, err := cache.Open(path, time.Duration(cfg.CacheTTL)*time.Second)
	if err != nil {
		log.Debug().Err(err).Msg("cache open failed, caching disabled")
		return nil
	}
	return store
}

// newClient resolves credentials and builds the platform client. The
// returned cleanup closes the cache store.
func newClient(cfg *config.Config) (*insight.Client, func(), error) {
	key, err := config.ResolveAPIKey(flagAPIKey, cfg)
	if err != nil {
		return nil, nil, err
	}
	store := openCache(cfg)
	client, err := insight.NewClient(insight.ClientConfig{
		APIKey:  key,
		Region:  cfg.Region,
		Cache:   store,
		NoCache: flagNoCache,
		Progress: func(msg string) {
			log.Debug().Msg(msg)
		},
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		if store != nil {
			store.Close()
		}
	}
	return client, cleanup, nil
}

// withClient runs fn with a configured platform client and printer,
// closing the cache afterwards. Most commands are built on this.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, cleanup, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(cmd.Context(), cfg, client, newPrinter(cfg))
}

func newPrinter(cfg *config.Config) *format.Printer {
	return format.NewPrinter(os.Stdout, flagOutput, cfg.DefaultOutput)
}

// newConsoleClient builds the on-prem InsightVM console client from the
// stored console settings.
func newConsoleClient(cfg *config.Config) (*vmconsole.Client, error) {
	if cfg.VMConsoleURL == "" {
		return nil, fmt.Errorf("vm_console_url is not set, run `r7 config set --vm-console-url https://host:3780/api/3`")
	}
	password, err := config.ResolveVMPassword()
	if err != nil && cfg.VMUsername != "" {
		return nil, err
	}
	return vmconsole.NewClient(vmconsole.Config{
		BaseURL:   cfg.VMConsoleURL,
		Username:  cfg.VMUsername,
		Password:  password,
		VerifySSL: cfg.VMVerifySSL,
	})
}

// resolveOrgID returns the configured organization id, falling back to
// the first organization on the account. A discovered id is persisted so
// later invocations skip the lookup.
func resolveOrgID(ctx context.Context, client *insight.Client, cfg *config.Config) (string, error) {
	if cfg.OrganizationID != "" {
		return cfg.OrganizationID, nil
	}
	orgs, err := client.ListOrganizations(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving organization id: %w", err)
	}
	for _, org := range orgs {
		if id, ok := org["id"].(string); ok && id != "" {
			cfg.OrganizationID = id
			if err := cfg.Save(); err == nil {
				log.Debug().Str("org_id", id).Msg("saved discovered organization id")
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("no organization found on this account, pass --org-id")
}

// maskKey renders an API key safe for display.
func maskKey(key string) string {
	if len(key) > 12 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	return "****"
}

// str pulls a string field out of a decoded JSON object, "" when absent.
func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return format.Cell(m[key])
}

// nested walks dotted keys through nested objects.
func nested(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

// sliceOfMaps coerces a decoded JSON array field into []map[string]any.
func sliceOfMaps(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// orNA substitutes N/A for empty cells.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
