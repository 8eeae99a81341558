package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
	"github.com/joshhighet/r7/pkg/query"
)

//go:embed examples/asm/*.cypher
var cypherExampleFiles embed.FS

var asmCmd = &cobra.Command{
	Use:   "asm",
	Short: "Surface Command asset graph",
}

var asmProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Surface Command user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			profile, err := client.SurfaceProfile(ctx)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(profile)
			}
			idToken, _ := profile["id_token"].(map[string]any)
			if idToken == nil {
				idToken = profile
			}
			rows := [][]string{
				{"User ID", str(idToken, "sub")},
				{"Email", str(idToken, "email")},
				{"Name", str(idToken, "name")},
				{"Username", str(idToken, "preferred_username")},
				{"Customer ID", str(idToken, "customer_id")},
				{"Organization ID", str(idToken, "org_id")},
				{"Permission Roles", format.Cell(idToken["permission_roles"])},
				{"Features", format.Cell(idToken["features"])},
				{"License Type", str(idToken, "license_type")},
				{"License Status", str(idToken, "license_status")},
			}
			return p.Table("Surface Command Profile", []string{"Field", "Value"}, rows)
		})
	},
}

var asmAppsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Surface Command apps",
}

var asmAppsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed Surface Command apps",
	RunE: func(cmd *cobra.Command, args []string) error {
		excludeApps, _ := cmd.Flags().GetString("exclude-apps")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			apps, err := client.ListSurfaceApps(ctx)
			if err != nil {
				return err
			}
			if excludeApps != "" {
				for _, id := range strings.Split(excludeApps, ",") {
					delete(apps, strings.TrimSpace(id))
				}
			}
			if p.JSON() {
				return p.WriteJSON(apps)
			}
			ids := make([]string, 0, len(apps))
			for id := range apps {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				a, _ := apps[ids[i]].(map[string]any)
				b, _ := apps[ids[j]].(map[string]any)
				return str(a, "name") < str(b, "name")
			})
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				app, _ := apps[id].(map[string]any)
				created := format.Cell(nested(app, "stored_object_metadata", "created"))
				if len(created) > 10 {
					created = created[:10]
				}
				rows = append(rows, []string{
					id,
					str(app, "name"),
					str(app, "version"),
					format.Truncate(format.Cell(app["types"]), 40),
					created,
				})
			}
			return p.Table("Surface Command Apps", []string{"App ID", "Name", "Version", "Types", "Created"}, rows)
		})
	},
}

var asmCypherCmd = &cobra.Command{
	Use:   "cypher",
	Short: "openCypher queries against the asset graph",
}

var asmCypherQueryCmd = &cobra.Command{
	Use:   "query [cypher]",
	Short: "Execute an openCypher query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		columnsArg, _ := cmd.Flags().GetString("columns")
		limit, _ := cmd.Flags().GetInt("limit")
		start, _ := cmd.Flags().GetInt("start")
		depth, _ := cmd.Flags().GetInt("depth")
		order, _ := cmd.Flags().GetBool("order")
		usePrimary, _ := cmd.Flags().GetBool("use-primary")

		var cypher string
		switch {
		case file != "" && len(args) == 1:
			return fmt.Errorf("cannot specify both a query argument and --file")
		case file != "":
			var err error
			cypher, err = query.LoadCypherFile(file)
			if err != nil {
				return err
			}
		case len(args) == 1:
			cypher = query.CleanCypher(args[0])
		default:
			return fmt.Errorf("must specify either a query argument or --file")
		}

		cols, _, err := query.ParseColumns(columnsArg)
		if err != nil {
			return err
		}

		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			result, err := client.CypherQuery(ctx, insight.CypherRequest{
				Cypher:     cypher,
				Columns:    cols,
				Start:      start,
				Length:     limit,
				Depth:      depth,
				Order:      order,
				UsePrimary: usePrimary,
			})
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(result)
			}
			if len(result.Items) == 0 {
				p.Warn("No results found")
				return nil
			}
			rowWidth := len(result.Items[0].Data)
			headers := cypherHeaders(cols, cypher, rowWidth)
			rows := make([][]string, 0, len(result.Items))
			for _, item := range result.Items {
				row := make([]string, len(headers))
				for i := range headers {
					if i < len(item.Data) {
						row[i] = format.Cell(item.Data[i])
					}
				}
				rows = append(rows, row)
			}
			if err := p.Table("ASM Query Results", headers, rows); err != nil {
				return err
			}
			if start > 0 {
				p.Dim("Showing results starting from position %d (use --start to paginate)", start)
			}
			return nil
		})
	},
}

// cypherHeaders picks table headers: explicit columns win, then names
// parsed from the RETURN clause when they match the row width, then
// generic Value N placeholders.
func cypherHeaders(cols []query.Column, cypher string, rowWidth int) []string {
	if len(cols) > 0 {
		return query.ColumnHeaders(cols, rowWidth)
	}
	if parsed := query.ReturnHeaders(cypher); len(parsed) == rowWidth {
		return parsed
	}
	headers := make([]string, rowWidth)
	for i := range headers {
		headers[i] = fmt.Sprintf("Value %d", i+1)
	}
	return headers
}

// cypherExample is one parsed example file.
type cypherExample struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Query       string         `json:"query"`
	Columns     []query.Column `json:"columns"`
	Filename    string         `json:"filename"`
}

func loadCypherExamples() ([]cypherExample, error) {
	entries, err := cypherExampleFiles.ReadDir("examples/asm")
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var examples []cypherExample
	for _, entry := range entries {
		content, err := cypherExampleFiles.ReadFile("examples/asm/" + entry.Name())
		if err != nil {
			return nil, err
		}
		example := parseCypherExample(entry.Name(), string(content))
		if example.Query != "" {
			examples = append(examples, example)
		}
	}
	return examples, nil
}

func parseCypherExample(filename, content string) cypherExample {
	example := cypherExample{Filename: filename}
	var queryLines []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if comment, ok := strings.CutPrefix(line, "//"); ok {
			comment = strings.TrimSpace(comment)
			switch {
			case comment == "":
			case strings.HasPrefix(comment, "Columns:"):
				raw := strings.TrimSpace(strings.TrimPrefix(comment, "Columns:"))
				if raw != "" && raw != "[]" {
					_ = json.Unmarshal([]byte(raw), &example.Columns)
				}
			case example.Title == "":
				example.Title = comment
			case example.Description == "":
				example.Description = comment
			}
			continue
		}
		if line != "" {
			queryLines = append(queryLines, line)
		}
	}
	example.Query = strings.Join(queryLines, " ")
	if example.Title == "" {
		example.Title = strings.TrimSuffix(filename, ".cypher")
	}
	return example
}

var asmCypherExamplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List and test example Cypher queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		test, _ := cmd.Flags().GetBool("test")
		examples, err := loadCypherExamples()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p := newPrinter(cfg)

		if test {
			client, cleanup, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			for _, example := range examples {
				result, err := client.CypherQuery(cmd.Context(), insight.CypherRequest{Cypher: example.Query, Columns: example.Columns})
				switch {
				case err != nil:
					fmt.Printf("FAIL %s: %v\n", example.Filename, err)
				default:
					fmt.Printf("OK   %s: %d row(s)\n", example.Filename, len(result.Items))
				}
			}
			return nil
		}

		if p.JSON() {
			return p.WriteJSON(examples)
		}
		for _, example := range examples {
			fmt.Printf("%s\n", example.Title)
			if example.Description != "" {
				p.Dim("  %s", example.Description)
			}
			fmt.Printf("  r7 asm cypher query %q\n\n", example.Query)
		}
		return nil
	},
}

var asmSdkCmd = &cobra.Command{
	Use:   "sdk",
	Short: "Forward commands to the local surcom SDK",
}

// runSurcom execs the surcom binary with stdio attached.
func runSurcom(subcommand string, args []string) error {
	if _, err := exec.LookPath("surcom"); err != nil {
		return fmt.Errorf("surcom SDK not found, install it first: pip install r7-surcom-sdk")
	}
	full := []string{}
	if subcommand != "" {
		full = append(full, subcommand)
	}
	full = append(full, args...)
	proc := exec.Command("surcom", full...)
	proc.Stdin = os.Stdin
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr
	return proc.Run()
}

func sdkPassthrough(use, short, subcommand string) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurcom(subcommand, args)
		},
	}
}

func init() {
	asmAppsListCmd.Flags().String("exclude-apps", "", "Comma-separated app IDs to exclude from output")

	f := asmCypherQueryCmd.Flags()
	f.StringP("file", "f", "", "Read query from file (.cypher or .cql)")
	f.String("columns", "[]", `Columns as JSON (e.g. [{"alias":"m","property_name":"name"}]) or CSV of alias.property`)
	f.Int("limit", 100, "Max rows to request and display")
	f.Int("start", 0, "Pagination offset, position in result set to start")
	f.Int("depth", 0, "Graph traversal depth for nested relationships")
	f.Bool("order", true, "Enable/disable result ordering")
	f.Bool("use-primary", false, "Use primary properties for selection")

	asmCypherExamplesCmd.Flags().Bool("test", false, "Execute each example and report results")

	asmSdkCmd.AddCommand(
		sdkPassthrough("config", "Configure the surcom SDK", "config"),
		sdkPassthrough("connector", "Manage surcom connectors", "connector"),
		sdkPassthrough("type", "Inspect surcom types", "type"),
		sdkPassthrough("data", "Query surcom data", "data"),
		sdkPassthrough("help", "Show surcom SDK help", "--help"),
		sdkPassthrough("version", "Show surcom SDK version", "--version"),
	)

	asmAppsCmd.AddCommand(asmAppsListCmd)
	asmCypherCmd.AddCommand(asmCypherQueryCmd, asmCypherExamplesCmd)
	asmCmd.AddCommand(asmProfileCmd, asmAppsCmd, asmCypherCmd, asmSdkCmd)
	rootCmd.AddCommand(asmCmd)
}
