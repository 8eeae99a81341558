package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joshhighet/r7/pkg/config"
)

var credCmd = &cobra.Command{
	Use:   "cred",
	Short: "Manage API credentials in the OS keychain",
}

var credStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Store an API key in the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("api-key")
		if key == "" {
			return fmt.Errorf("--api-key is required")
		}
		if len(strings.TrimSpace(key)) < 10 {
			fmt.Println("Warning: API key appears to be invalid (too short)")
			if !confirm("Store anyway?") {
				return nil
			}
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := config.StoreAPIKey(key, cfg); err != nil {
			return err
		}
		fmt.Println("API key stored")
		fmt.Println("You can now run commands without --api-key or R7_API_KEY")
		return nil
	},
}

var credDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !config.HasStoredAPIKey(cfg) {
			fmt.Println("No API key found in keychain")
			return nil
		}
		if err := config.DeleteAPIKey(cfg); err != nil {
			return err
		}
		fmt.Println("API key deleted")
		return nil
	},
}

var credStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether an API key is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		key, err := config.ResolveAPIKey(flagAPIKey, cfg)
		if errors.Is(err, config.ErrNoAPIKey) {
			fmt.Println("No API key found in keychain or environment")
			fmt.Println("Use `r7 config cred store --api-key YOUR_KEY` to store one")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("API key found: %s\n", maskKey(key))
		return nil
	},
}

var credVMCmd = &cobra.Command{
	Use:   "vm",
	Short: "Manage InsightVM console credentials",
}

var credVMSetUserCmd = &cobra.Command{
	Use:   "set-user",
	Short: "Store the console username in config",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			return fmt.Errorf("--username is required")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.VMUsername = username
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println("VM console username saved in config")
		return nil
	},
}

var credVMSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the console password in the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Password: ")
		first, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return err
		}
		fmt.Print("Repeat for confirmation: ")
		second, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return err
		}
		if string(first) != string(second) {
			return fmt.Errorf("passwords do not match")
		}
		if len(first) == 0 {
			return fmt.Errorf("password cannot be empty")
		}
		if err := config.StoreVMPassword(string(first)); err != nil {
			return err
		}
		fmt.Println("VM console password stored in keychain")
		return nil
	},
}

var credVMDeletePasswordCmd = &cobra.Command{
	Use:   "delete-password",
	Short: "Delete the console password from the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteVMPassword(); err != nil {
			fmt.Println("No VM password found in keychain")
			return nil
		}
		fmt.Println("VM console password deleted from keychain")
		return nil
	},
}

var credVMStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored console username and password state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.VMUsername != "" {
			fmt.Printf("VM username: %s\n", cfg.VMUsername)
		} else {
			fmt.Println("VM username: not set")
		}
		if _, err := config.ResolveVMPassword(); err == nil {
			fmt.Println("VM password: stored")
		} else {
			fmt.Println("VM password: not stored")
		}
		return nil
	},
}

func init() {
	credStoreCmd.Flags().String("api-key", "", "API key to store")
	credVMSetUserCmd.Flags().String("username", "", "Console username to store in config")

	credVMCmd.AddCommand(credVMSetUserCmd)
	credVMCmd.AddCommand(credVMSetPasswordCmd)
	credVMCmd.AddCommand(credVMDeletePasswordCmd)
	credVMCmd.AddCommand(credVMStatusCmd)

	credCmd.AddCommand(credStoreCmd)
	credCmd.AddCommand(credDeleteCmd)
	credCmd.AddCommand(credStatusCmd)
	credCmd.AddCommand(credVMCmd)
	configCmd.AddCommand(credCmd)
}
