package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Platform account management",
}

var accountKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage platform API keys",
}

var accountKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			keys, err := client.ListAPIKeys(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				rows = append(rows, []string{str(key, "id"), str(key, "name"), str(key, "type"), str(key, "generated_on")})
			}
			return p.Table("API Keys", []string{"ID", "Name", "Type", "Generated On"}, rows)
		})
	},
}

var accountKeysAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		keyType, _ := cmd.Flags().GetString("type")
		orgID, _ := cmd.Flags().GetString("organization-id")
		if name == "" {
			return fmt.Errorf("--name is required")
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			created, err := client.CreateAPIKey(ctx, name, strings.ToUpper(keyType), orgID)
			if err != nil {
				return err
			}
			return p.WriteJSON(created)
		})
	},
}

var accountKeysDeleteCmd = &cobra.Command{
	Use:   "delete <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("confirm")
		if !yes && !confirm(fmt.Sprintf("Delete API key %s?", args[0])) {
			return nil
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			if err := client.DeleteAPIKey(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("API key %s deleted\n", args[0])
			return nil
		})
	},
}

var accountUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Platform users",
}

var accountUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List platform users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			users, err := client.ListUsers(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, user := range users {
				name := strings.TrimSpace(str(user, "first_name") + " " + str(user, "last_name"))
				rows = append(rows, []string{str(user, "id"), str(user, "email"), name, str(user, "status")})
			}
			return p.Table("Platform Users", []string{"ID", "Email", "Name", "Status"}, rows)
		})
	},
}

var accountUsersGetCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Get one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			user, err := client.GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			return p.WriteJSON(user)
		})
	},
}

var accountOrgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "Organizations",
}

var accountOrgsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List organizations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			orgs, err := client.ListOrganizations(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(orgs))
			for _, org := range orgs {
				region := str(org, "type")
				if region == "" {
					region = str(org, "region")
				}
				rows = append(rows, []string{str(org, "id"), str(org, "name"), region})
			}
			return p.Table("Organizations", []string{"ID", "Name", "Region"}, rows)
		})
	},
}

var accountProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Product entitlements",
}

var accountProductsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			products, err := client.ListProducts(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(products))
			for _, product := range products {
				rows = append(rows, []string{str(product, "product_token"), str(product, "product_code"), str(product, "organization_name")})
			}
			return p.Table("Products", []string{"Token", "Code", "Organization"}, rows)
		})
	},
}

var accountProductsGetCmd = &cobra.Command{
	Use:   "get <product-token>",
	Short: "Get one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			product, err := client.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			return p.WriteJSON(product)
		})
	},
}

var accountProductsListUsersCmd = &cobra.Command{
	Use:   "list-users <product-token>",
	Short: "List users with access to a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			users, err := client.ListProductUsers(ctx, args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, user := range users {
				name := strings.TrimSpace(str(user, "first_name") + " " + str(user, "last_name"))
				rows = append(rows, []string{str(user, "id"), str(user, "email"), name})
			}
			return p.Table("Product Users", []string{"ID", "Email", "Name"}, rows)
		})
	},
}

var accountRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Platform roles",
}

var accountRolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			roles, err := client.ListRoles(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(roles))
			for _, role := range roles {
				var products []string
				for _, supported := range sliceOfMaps(role["supported_products"]) {
					products = append(products, str(supported, "product_code"))
				}
				rows = append(rows, []string{
					str(role, "id"),
					str(role, "name"),
					format.Truncate(str(role, "description"), 50),
					strings.Join(products, ", "),
				})
			}
			return p.Table("Roles", []string{"ID", "Name", "Description", "Products"}, rows)
		})
	},
}

var accountRolesGetCmd = &cobra.Command{
	Use:   "get <role-id>",
	Short: "Get one role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			role, err := client.GetRole(ctx, args[0])
			if err != nil {
				return err
			}
			return p.WriteJSON(role)
		})
	},
}

var accountRolesDeleteCmd = &cobra.Command{
	Use:   "delete <role-id>",
	Short: "Delete a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("confirm")
		if !yes && !confirm(fmt.Sprintf("Delete role %s?", args[0])) {
			return nil
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			if err := client.DeleteRole(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Role %s deleted\n", args[0])
			return nil
		})
	},
}

var accountResourceGroupsCmd = &cobra.Command{
	Use:   "resource-groups",
	Short: "Resource groups",
}

var accountResourceGroupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resource groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ListResourceGroups(ctx)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			var rows [][]string
			for _, group := range sliceOfMaps(resp["granular_control_resource_groups"]) {
				rows = append(rows, []string{str(group, "id"), str(group, "name"), "Yes"})
			}
			for _, group := range sliceOfMaps(resp["non_granular_control_resource_groups"]) {
				rows = append(rows, []string{str(group, "id"), str(group, "name"), "No"})
			}
			return p.Table("Resource Groups", []string{"ID", "Name", "Granular Control"}, rows)
		})
	},
}

var accountFeaturesCmd = &cobra.Command{
	Use:   "features",
	Short: "Feature definitions",
}

var accountFeaturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List features and their permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			features, err := client.ListFeatures(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(features))
			for _, feature := range features {
				var perms []string
				for _, perm := range sliceOfMaps(feature["permissions"]) {
					perms = append(perms, str(perm, "name"))
				}
				rows = append(rows, []string{
					format.Truncate(str(feature, "id"), 20),
					str(feature, "name"),
					format.Truncate(str(feature, "description"), 40),
					strings.Join(perms, ", "),
				})
			}
			return p.Table("Features", []string{"ID", "Name", "Description", "Permissions"}, rows)
		})
	},
}

func init() {
	accountKeysAddCmd.Flags().String("name", "", "Key name")
	accountKeysAddCmd.Flags().String("type", "USER", "Key type (USER or ORGANIZATION)")
	accountKeysAddCmd.Flags().String("organization-id", "", "Organization ID for ORGANIZATION keys")
	accountKeysDeleteCmd.Flags().Bool("confirm", false, "Skip the confirmation prompt")
	accountRolesDeleteCmd.Flags().Bool("confirm", false, "Skip the confirmation prompt")

	accountKeysCmd.AddCommand(accountKeysListCmd, accountKeysAddCmd, accountKeysDeleteCmd)
	accountUsersCmd.AddCommand(accountUsersListCmd, accountUsersGetCmd)
	accountOrgsCmd.AddCommand(accountOrgsListCmd)
	accountProductsCmd.AddCommand(accountProductsListCmd, accountProductsGetCmd, accountProductsListUsersCmd)
	accountRolesCmd.AddCommand(accountRolesListCmd, accountRolesGetCmd, accountRolesDeleteCmd)
	accountResourceGroupsCmd.AddCommand(accountResourceGroupsListCmd)
	accountFeaturesCmd.AddCommand(accountFeaturesListCmd)

	accountCmd.AddCommand(accountKeysCmd, accountUsersCmd, accountOrgsCmd, accountProductsCmd,
		accountRolesCmd, accountResourceGroupsCmd, accountFeaturesCmd)
	rootCmd.AddCommand(accountCmd)
}
