package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
)

var appsecCmd = &cobra.Command{
	Use:   "appsec",
	Short: "InsightAppSec applications and scans",
}

var appsecAppCmd = &cobra.Command{
	Use:   "app",
	Short: "Scanned applications",
}

var appsecScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Application scans",
}

// resolveAppID turns an app name or UUID into an app id. Unknown names
// produce an error listing similar app names.
func resolveAppID(ctx context.Context, client *insight.Client, p *format.Printer, identifier string) (string, error) {
	if insight.IsUUID(identifier) {
		return identifier, nil
	}
	apps, err := client.ListApps(ctx)
	if err != nil {
		return "", err
	}
	wanted := strings.ToLower(identifier)
	for _, app := range apps.Data {
		if strings.ToLower(str(app, "name")) == wanted {
			id := str(app, "id")
			p.Dim("Found app '%s' -> %s", identifier, id)
			return id, nil
		}
	}
	similar := similarAppNames(apps.Data, wanted)
	if len(similar) > 0 {
		return "", fmt.Errorf("application not found: %q, did you mean one of: %s", identifier, strings.Join(similar, ", "))
	}
	return "", fmt.Errorf("application not found: %q, use `r7 appsec app list` to see all applications", identifier)
}

// similarAppNames suggests apps sharing words with the search term.
func similarAppNames(apps []map[string]any, wanted string) []string {
	var similar []string
	for _, app := range apps {
		name := str(app, "name")
		lower := strings.ToLower(name)
		match := strings.Contains(lower, wanted) || strings.Contains(wanted, lower)
		if !match {
			for _, word := range strings.Fields(wanted) {
				if strings.Contains(lower, word) {
					match = true
					break
				}
			}
		}
		if match {
			similar = append(similar, name)
			if len(similar) == 5 {
				break
			}
		}
	}
	return similar
}

// vulnTitle derives a readable name from the first variance's attack id.
func vulnTitle(vuln map[string]any) string {
	for _, variance := range sliceOfMaps(vuln["variances"]) {
		if attackID := format.Cell(nested(variance, "attack", "id")); attackID != "" {
			return attackID + " Vulnerability"
		}
		break
	}
	return "Unknown Vulnerability"
}

var severityOrder = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "INFO"}

// severityCounts buckets vulnerabilities by severity, folding
// INFORMATIONAL into INFO.
func severityCounts(vulns []map[string]any) map[string]int {
	counts := map[string]int{}
	for _, vuln := range vulns {
		severity := strings.ToUpper(str(vuln, "severity"))
		if severity == "INFORMATIONAL" {
			severity = "INFO"
		}
		counts[severity]++
	}
	return counts
}

func severitySummary(counts map[string]int) string {
	parts := make([]string, 0, len(severityOrder))
	for _, severity := range severityOrder {
		parts = append(parts, fmt.Sprintf("%s: %d", severity, counts[severity]))
	}
	return strings.Join(parts, "  ")
}

// scanDuration renders the wall time between submit and completion.
func scanDuration(submit, completion, status string) string {
	start, err := time.Parse(time.RFC3339, submit)
	if err != nil {
		return "N/A"
	}
	if completion == "" {
		if strings.EqualFold(status, "RUNNING") {
			return time.Since(start).Round(time.Second).String()
		}
		return "N/A"
	}
	end, err := time.Parse(time.RFC3339, completion)
	if err != nil {
		return "N/A"
	}
	return end.Sub(start).Round(time.Second).String()
}

func printVulnTable(p *format.Printer, vulns []map[string]any, total int) error {
	if total == 0 {
		p.Dim("No vulnerabilities found")
		return nil
	}
	rows := make([][]string, 0, len(vulns))
	for _, vuln := range vulns {
		rows = append(rows, []string{
			strings.ToUpper(str(vuln, "severity")),
			format.Truncate(vulnTitle(vuln), 40),
			format.Truncate(orNA(format.Cell(nested(vuln, "root_cause", "url"))), 50),
			orNA(str(vuln, "status")),
		})
	}
	title := fmt.Sprintf("Vulnerabilities (showing %d of %d)", len(vulns), total)
	return p.Table(title, []string{"Severity", "Vulnerability", "URL", "Status"}, rows)
}

var appsecAppListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications with latest scan info",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			apps, err := client.ListApps(ctx)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(apps)
			}
			// Latest scan per app, newest submit_time wins.
			type scanInfo struct{ id, submitTime, status string }
			latest := map[string]scanInfo{}
			if scans, err := client.ListScans(ctx, "", 0, 0); err == nil {
				for _, scan := range scans.Data {
					appID := format.Cell(nested(scan, "app", "id"))
					if appID == "" {
						continue
					}
					submitTime := str(scan, "submit_time")
					if prev, ok := latest[appID]; !ok || submitTime > prev.submitTime {
						latest[appID] = scanInfo{str(scan, "id"), submitTime, str(scan, "status")}
					}
				}
			}
			rows := make([][]string, 0, len(apps.Data))
			for _, app := range apps.Data {
				appID := str(app, "id")
				info := latest[appID]
				scanID := info.id
				if scanID == "" {
					scanID = "No scans"
				}
				rows = append(rows, []string{appID, str(app, "name"), scanID, orNA(info.status)})
			}
			return p.Table("Applications", []string{"ID", "Name", "Latest Scan ID", "Status"}, rows)
		})
	},
}

var appsecAppGetCmd = &cobra.Command{
	Use:   "get <app-id-or-name>",
	Short: "Latest successful scan results for an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			appID, err := resolveAppID(ctx, client, p, args[0])
			if err != nil {
				return err
			}

			// Walk the scan pages until the first COMPLETE scan shows up.
			var latest map[string]any
			const pageSize = 50
			for page := 0; page <= 20 && latest == nil; page++ {
				scans, err := client.ListScans(ctx, appID, page, pageSize)
				if err != nil {
					return err
				}
				if len(scans.Data) == 0 {
					break
				}
				for _, scan := range scans.Data {
					if str(scan, "status") == "COMPLETE" {
						latest = scan
						break
					}
				}
			}
			if latest == nil {
				return fmt.Errorf("no successful scans found for application %s", appID)
			}
			scanID := str(latest, "id")
			p.Dim("Using latest successful scan: %s", scanID)

			scan, err := client.GetScan(ctx, scanID)
			if err != nil {
				return err
			}
			vulns, err := client.ScanVulnerabilities(ctx, scanID, limit)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(map[string]any{
					"app_id":                 appID,
					"latest_successful_scan": scan,
					"vulnerabilities":        vulns,
				})
			}
			counts := severityCounts(vulns.Data)
			p.Dim("Application: %s", appID)
			p.Dim("Scan: %s (%s), started %s, completed %s", scanID, str(scan, "status"),
				orNA(str(scan, "submit_time")), orNA(str(scan, "completion_time")))
			p.Dim("%s", severitySummary(counts))
			return printVulnTable(p, vulns.Data, len(vulns.Data))
		})
	},
}

var appsecScanListCmd = &cobra.Command{
	Use:   "list [app-id-or-name]",
	Short: "List scans, optionally for one application",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			appID := ""
			if len(args) == 1 {
				var err error
				appID, err = resolveAppID(ctx, client, p, args[0])
				if err != nil {
					return err
				}
			}
			scans, err := client.ListScans(ctx, appID, 0, 0)
			if err != nil {
				return err
			}
			data := scans.Data
			if limit > 0 && len(data) > limit {
				data = data[:limit]
			}
			if p.JSON() {
				return p.WriteJSON(map[string]any{"data": data})
			}
			// App names for display.
			appNames := map[string]string{}
			if apps, err := client.ListApps(ctx); err == nil {
				for _, app := range apps.Data {
					appNames[str(app, "id")] = str(app, "name")
				}
			}
			rows := make([][]string, 0, len(data))
			for _, scan := range data {
				scanAppID := format.Cell(nested(scan, "app", "id"))
				appName := appNames[scanAppID]
				if appName == "" {
					appName = "ID: " + orNA(scanAppID)
				}
				rows = append(rows, []string{
					str(scan, "id"),
					format.Truncate(appName, 25),
					str(scan, "status"),
					orNA(str(scan, "submit_time")),
					orNA(str(scan, "completion_time")),
					scanDuration(str(scan, "submit_time"), str(scan, "completion_time"), str(scan, "status")),
				})
			}
			title := "All Scans"
			if appID != "" {
				title = "Scans for " + appID
			}
			return p.Table(title, []string{"ID", "Application", "Status", "Started", "Completed", "Duration"}, rows)
		})
	},
}

var appsecScanGetCmd = &cobra.Command{
	Use:   "get <scan-id>",
	Short: "Scan results including vulnerabilities found",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			scan, err := client.GetScan(ctx, args[0])
			if err != nil {
				return err
			}
			vulns, err := client.ScanVulnerabilities(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(map[string]any{"scan": scan, "vulnerabilities": vulns})
			}
			counts := severityCounts(vulns.Data)
			p.Dim("Scan: %s (%s)", str(scan, "id"), str(scan, "status"))
			p.Dim("Application: %s", orNA(format.Cell(nested(scan, "app", "id"))))
			p.Dim("Started %s, completed %s", orNA(str(scan, "submit_time")), orNA(str(scan, "completion_time")))
			p.Dim("%s", severitySummary(counts))
			return printVulnTable(p, vulns.Data, len(vulns.Data))
		})
	},
}

func init() {
	appsecAppGetCmd.Flags().Int("limit", 20, "Maximum number of vulnerabilities to show")
	appsecScanListCmd.Flags().Int("limit", 0, "Maximum number of scans to return")
	appsecScanGetCmd.Flags().Int("limit", 20, "Maximum number of vulnerabilities to show")

	appsecAppCmd.AddCommand(appsecAppListCmd, appsecAppGetCmd)
	appsecScanCmd.AddCommand(appsecScanListCmd, appsecScanGetCmd)
	appsecCmd.AddCommand(appsecAppCmd, appsecScanCmd)
	rootCmd.AddCommand(appsecCmd)
}
