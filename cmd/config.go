package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/insight"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage local configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		display, err := cfg.Map()
		if err != nil {
			return err
		}
		if key, ok := display["api_key"].(string); ok && key != "" {
			display["api_key"] = maskKey(key)
		}
		if key, ok := display["gemini_api_key"].(string); ok && key != "" {
			display["gemini_api_key"] = maskKey(key)
		}
		return newPrinter(cfg).WriteJSON(display)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		changed := map[string]any{}
		set := func(name string, apply func()) {
			if cmd.Flags().Changed(name) {
				apply()
			}
		}
		set("region", func() { cfg.Region, _ = cmd.Flags().GetString("region"); changed["region"] = cfg.Region })
		set("output", func() { cfg.DefaultOutput, _ = cmd.Flags().GetString("output"); changed["default_output"] = cfg.DefaultOutput })
		set("max-pages", func() { cfg.MaxResultPages, _ = cmd.Flags().GetInt("max-pages"); changed["max_result_pages"] = cfg.MaxResultPages })
		set("query-timeout", func() { cfg.QueryTimeout, _ = cmd.Flags().GetInt("query-timeout"); changed["query_timeout"] = cfg.QueryTimeout })
		set("cache", func() { cfg.CacheEnabled, _ = cmd.Flags().GetBool("cache"); changed["cache_enabled"] = cfg.CacheEnabled })
		set("cache-ttl", func() { cfg.CacheTTL, _ = cmd.Flags().GetInt("cache-ttl"); changed["cache_ttl"] = cfg.CacheTTL })
		set("verbose", func() { cfg.Verbose, _ = cmd.Flags().GetBool("verbose"); changed["verbose"] = cfg.Verbose })
		set("max-chars", func() { cfg.MaxChars, _ = cmd.Flags().GetInt("max-chars"); changed["max_chars"] = cfg.MaxChars })
		set("smart-columns", func() {
			cfg.SmartColumnsEnabled, _ = cmd.Flags().GetBool("smart-columns")
			changed["smart_columns_enabled"] = cfg.SmartColumnsEnabled
		})
		set("smart-columns-max", func() {
			cfg.SmartColumnsMax, _ = cmd.Flags().GetInt("smart-columns-max")
			changed["smart_columns_max"] = cfg.SmartColumnsMax
		})
		set("org-id", func() { cfg.OrganizationID, _ = cmd.Flags().GetString("org-id"); changed["organization_id"] = cfg.OrganizationID })
		set("gemini-api-key", func() {
			cfg.GeminiAPIKey, _ = cmd.Flags().GetString("gemini-api-key")
			changed["gemini_api_key"] = maskKey(cfg.GeminiAPIKey)
		})
		set("vm-console-url", func() { cfg.VMConsoleURL, _ = cmd.Flags().GetString("vm-console-url"); changed["vm_console_url"] = cfg.VMConsoleURL })
		set("vm-verify-ssl", func() { cfg.VMVerifySSL, _ = cmd.Flags().GetBool("vm-verify-ssl"); changed["vm_verify_ssl"] = cfg.VMVerifySSL })
		set("vm-tenant-prefix", func() {
			cfg.VMTenantPrefix, _ = cmd.Flags().GetString("vm-tenant-prefix")
			changed["vm_tenant_prefix"] = cfg.VMTenantPrefix
		})

		if len(changed) == 0 {
			return fmt.Errorf("no configuration values provided, see --help for available options")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println("Configuration updated:")
		for key, value := range changed {
			fmt.Printf("  %s: %v\n", key, value)
		}
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("This will reset all configuration to defaults. Continue?") {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Reset()
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println("Configuration reset to defaults")
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Println("Configuration is valid")
		return nil
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test API connectivity and authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, cleanup, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		fmt.Printf("Testing connection to %s region...\n", strings.ToUpper(cfg.Region))
		count, err := client.TestConnection(cmd.Context())
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		fmt.Printf("Connection successful, found %d organization(s)\n", count)
		return nil
	},
}

var configCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var configCacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openCache(cfg)
		if store == nil {
			return fmt.Errorf("cache is disabled, enable with `r7 config set --cache`")
		}
		defer store.Close()
		stats, err := store.Stats()
		if err != nil {
			return err
		}
		return newPrinter(cfg).WriteJSON(stats)
	},
}

var configCacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openCache(cfg)
		if store == nil {
			return fmt.Errorf("cache is disabled, enable with `r7 config set --cache`")
		}
		defer store.Close()
		n, err := store.Purge()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached response(s)\n", n)
		return nil
	},
}

var configCacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openCache(cfg)
		if store == nil {
			return fmt.Errorf("cache is disabled, enable with `r7 config set --cache`")
		}
		defer store.Close()
		n, err := store.PurgeExpired()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired response(s)\n", n)
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("r7 setup")
		fmt.Println("--------")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Println("Step 1: Pick your Insight platform region")
		for i, region := range config.ValidRegions {
			fmt.Printf("%d. %s\n", i+1, region)
		}
		fmt.Printf("Enter number or name [%s] > ", cfg.Region)
		scanner.Scan()
		choice := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if choice != "" {
			region := choice
			for i, name := range config.ValidRegions {
				if choice == fmt.Sprint(i+1) {
					region = name
				}
			}
			cfg.Region = region
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		fmt.Println("\nStep 2: Enter your Insight platform API key (input hidden)")
		fmt.Print("> ")
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return err
		}
		apiKey := strings.TrimSpace(string(keyBytes))
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		fmt.Println("\nStep 3: Validating key...")
		client, err := insight.NewClient(insight.ClientConfig{APIKey: apiKey, Region: cfg.Region})
		if err != nil {
			return err
		}
		if err := client.Validate(cmd.Context()); err != nil {
			return fmt.Errorf("key validation failed: %w", err)
		}
		fmt.Println("Key works.")

		fmt.Println("\nStep 4: Storing credentials...")
		if err := config.StoreAPIKey(apiKey, cfg); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println("--------")
		fmt.Println("Setup complete.")
		fmt.Printf("Region: %s\n", cfg.Region)
		fmt.Println("Try `r7 siem logs list` to get started.")
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func init() {
	f := configSetCmd.Flags()
	f.String("region", "", "Default region (us, eu, ca, ap, au)")
	f.String("output", "", "Default output format (simple, table, json)")
	f.Int("max-pages", 0, "Default max pages for pagination")
	f.Int("query-timeout", 0, "Query timeout in seconds")
	f.Bool("cache", true, "Enable/disable caching")
	f.Int("cache-ttl", 0, "Cache TTL in seconds")
	f.Bool("verbose", false, "Enable/disable verbose logging by default")
	f.Int("max-chars", 0, "Maximum characters to display per log entry")
	f.Bool("smart-columns", true, "Enable/disable smart columns by default")
	f.Int("smart-columns-max", 0, "Default maximum number of smart columns")
	f.String("org-id", "", "Organization ID for RRN reconstruction")
	f.String("gemini-api-key", "", "Gemini API key used by `r7 docs ask`")
	f.String("vm-console-url", "", "InsightVM console API base URL, e.g. https://host:3780/api/3")
	f.Bool("vm-verify-ssl", true, "Verify SSL when talking to the console")
	f.String("vm-tenant-prefix", "", "VM tenant prefix for shortening asset IDs")

	configResetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	configCacheCmd.AddCommand(configCacheStatsCmd)
	configCacheCmd.AddCommand(configCacheClearCmd)
	configCacheCmd.AddCommand(configCacheCleanupCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configCacheCmd)
	configCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
}
