package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
	"github.com/joshhighet/r7/pkg/vmconsole"
)

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "InsightVM console, cloud and bulk export",
}

var vmConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "On-prem console (API v3)",
}

var vmConsoleSitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Console sites",
}

var vmConsoleAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Console assets",
}

var vmConsoleVulnsCmd = &cobra.Command{
	Use:   "vulns",
	Short: "Console vulnerability definitions",
}

var vmConsoleScansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Console scans",
}

var vmConsoleFindingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Per-asset vulnerability findings",
}

// withConsole runs fn against the on-prem console client.
func withConsole(fn func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newConsoleClient(cfg)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), cfg, client, newPrinter(cfg))
	}
}

// resources unwraps the console's { resources: [...] } page envelope.
func resources(resp map[string]any) []map[string]any {
	return sliceOfMaps(resp["resources"])
}

var vmConsoleConfigTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Verify console connectivity and credentials",
	RunE: withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
		resp, err := client.ListSites(ctx, 0, 1)
		if err != nil {
			return fmt.Errorf("console connection failed: %w", err)
		}
		total := ""
		if page, ok := resp["page"].(map[string]any); ok {
			total = str(page, "totalResources")
		}
		fmt.Fprintf(p.Out, "Console connection OK (%s)\n", cfg.VMConsoleURL)
		if total != "" {
			p.Dim("%s sites visible", total)
		}
		return nil
	}),
}

var vmConsoleSitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			resp, err := client.ListSites(ctx, page, size)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			rows := make([][]string, 0)
			for _, s := range resources(resp) {
				rows = append(rows, []string{
					str(s, "id"),
					str(s, "name"),
					str(s, "type"),
					str(s, "assets"),
					str(s, "riskScore"),
					str(s, "importance"),
					str(s, "lastScanTime"),
				})
			}
			return p.Table(fmt.Sprintf("Sites (page %d)", page), []string{"ID", "Name", "Type", "Assets", "Risk", "Importance", "Last Scan"}, rows)
		})(cmd, args)
	},
}

var vmConsoleSitesGetCmd = &cobra.Command{
	Use:   "get <site-id>",
	Short: "Get site details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			site, err := client.GetSite(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(site)
			}
			var rows [][]string
			for _, field := range []string{
				"id", "name", "description", "type", "importance",
				"assets", "riskScore", "scanTemplate", "scanEngine", "lastScanTime",
			} {
				if v := str(site, field); v != "" {
					rows = append(rows, []string{field, v})
				}
			}
			if vulns, ok := site["vulnerabilities"].(map[string]any); ok {
				for _, key := range []string{"total", "critical", "severe", "moderate"} {
					rows = append(rows, []string{"vulnerabilities." + key, str(vulns, key)})
				}
			}
			return p.Table("Site "+args[0], []string{"Field", "Value"}, rows)
		})(cmd, args)
	},
}

// consoleAssetHost digs the display hostname out of a console asset.
func consoleAssetHost(a map[string]any) string {
	if host := str(a, "hostName"); host != "" {
		return host
	}
	for _, hn := range sliceOfMaps(a["hostNames"]) {
		if name := str(hn, "name"); name != "" {
			return name
		}
	}
	return ""
}

// consoleAssetIPs joins up to three distinct addresses of an asset.
func consoleAssetIPs(a map[string]any) string {
	seen := map[string]bool{}
	var ips []string
	add := func(ip string) {
		if ip != "" && !seen[ip] && len(ips) < 3 {
			seen[ip] = true
			ips = append(ips, ip)
		}
	}
	add(str(a, "ip"))
	for _, addr := range sliceOfMaps(a["addresses"]) {
		add(str(addr, "ip"))
	}
	return strings.Join(ips, ", ")
}

func consoleAssetOS(a map[string]any) string {
	if os := str(a, "os"); os != "" {
		return os
	}
	if fp, ok := a["osFingerprint"].(map[string]any); ok {
		if desc := str(fp, "description"); desc != "" {
			return desc
		}
		return str(fp, "product")
	}
	return ""
}

var vmConsoleAssetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		siteID, _ := cmd.Flags().GetString("site-id")
		hostname, _ := cmd.Flags().GetString("hostname")
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			var resp map[string]any
			var err error
			if siteID != "" {
				resp, err = client.ListSiteAssets(ctx, siteID, page, size)
			} else {
				resp, err = client.ListAssets(ctx, page, size)
			}
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			assets := resources(resp)
			if hostname != "" {
				wanted := strings.ToLower(hostname)
				var filtered []map[string]any
				for _, a := range assets {
					if strings.Contains(strings.ToLower(consoleAssetHost(a)), wanted) {
						filtered = append(filtered, a)
					}
				}
				assets = filtered
				if len(assets) == 0 {
					p.Warn("No assets found matching hostname filter: %q", hostname)
					return nil
				}
			}
			rows := make([][]string, 0, len(assets))
			for _, a := range assets {
				vulnTotal := ""
				if vulns, ok := a["vulnerabilities"].(map[string]any); ok {
					vulnTotal = str(vulns, "total")
				}
				rows = append(rows, []string{
					str(a, "id"),
					consoleAssetHost(a),
					consoleAssetIPs(a),
					format.Truncate(consoleAssetOS(a), 40),
					str(a, "riskScore"),
					vulnTotal,
				})
			}
			return p.Table(fmt.Sprintf("Assets - Console API v3 (page %d)", page), []string{"ID", "Host", "IPs", "OS", "Risk", "Vulns"}, rows)
		})(cmd, args)
	},
}

var vmConsoleAssetsGetCmd = &cobra.Command{
	Use:   "get <asset-id>",
	Short: "Get asset details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			asset, err := client.GetAsset(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(asset)
			}
			rows := [][]string{
				{"ID", orNA(str(asset, "id"))},
				{"Host", orNA(consoleAssetHost(asset))},
				{"IPs", orNA(consoleAssetIPs(asset))},
				{"MAC", orNA(str(asset, "mac"))},
				{"OS", orNA(consoleAssetOS(asset))},
				{"Risk Score", orNA(str(asset, "riskScore"))},
				{"Assessed", orNA(str(asset, "assessedForVulnerabilities"))},
			}
			if vulns, ok := asset["vulnerabilities"].(map[string]any); ok {
				rows = append(rows,
					[]string{"Vulns Total", str(vulns, "total")},
					[]string{"Critical", str(vulns, "critical")},
					[]string{"Severe", str(vulns, "severe")},
					[]string{"Moderate", str(vulns, "moderate")},
				)
			}
			return p.Table("Asset "+args[0], []string{"Field", "Value"}, rows)
		})(cmd, args)
	},
}

var vmConsoleAssetsDeleteCmd = &cobra.Command{
	Use:   "delete <asset-id>",
	Short: "Delete an asset from the console",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("confirm")
		if !confirmed && !confirm(fmt.Sprintf("Delete asset %s from the console?", args[0])) {
			return nil
		}
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			if _, err := client.DeleteAsset(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(p.Out, "Deleted asset %s\n", args[0])
			return nil
		})(cmd, args)
	},
}

var vmConsoleVulnsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vulnerability definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		severity, _ := cmd.Flags().GetString("severity")
		cve, _ := cmd.Flags().GetString("cve")
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			resp, err := client.ListVulnerabilities(ctx, page, size)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			vulns := resources(resp)
			rows := make([][]string, 0, len(vulns))
			for _, v := range vulns {
				if severity != "" && !strings.EqualFold(str(v, "severity"), severity) {
					continue
				}
				var cves []string
				if raw, ok := v["cves"].([]any); ok {
					for _, c := range raw {
						cves = append(cves, format.Cell(c))
					}
				}
				if cve != "" {
					found := false
					for _, c := range cves {
						if strings.Contains(strings.ToLower(c), strings.ToLower(cve)) {
							found = true
							break
						}
					}
					if !found {
						continue
					}
				}
				if len(cves) > 3 {
					cves = cves[:3]
				}
				title := str(v, "title")
				if title == "" {
					title = str(v, "name")
				}
				rows = append(rows, []string{
					str(v, "id"),
					format.Truncate(title, 60),
					str(v, "severity"),
					strings.Join(cves, ", "),
				})
			}
			return p.Table(fmt.Sprintf("Vulnerabilities (page %d)", page), []string{"ID", "Title", "Severity", "CVEs"}, rows)
		})(cmd, args)
	},
}

var vmConsoleVulnsGetCmd = &cobra.Command{
	Use:   "get <vuln-id>",
	Short: "Get a vulnerability definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			v, err := client.GetVulnerability(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(v)
			}
			var cves []string
			if raw, ok := v["cves"].([]any); ok {
				for _, c := range raw {
					cves = append(cves, format.Cell(c))
				}
			}
			rows := [][]string{
				{"ID", orNA(str(v, "id"))},
				{"Title", orNA(str(v, "title"))},
				{"Severity", orNA(str(v, "severity"))},
				{"Severity Score", orNA(str(v, "severityScore"))},
				{"CVEs", orNA(strings.Join(cves, ", "))},
				{"Published", orNA(str(v, "published"))},
				{"Risk Score", orNA(str(v, "riskScore"))},
			}
			return p.Table("Vulnerability "+args[0], []string{"Field", "Value"}, rows)
		})(cmd, args)
	},
}

var vmConsoleFindingsAssetCmd = &cobra.Command{
	Use:   "asset <asset-id>",
	Short: "List findings on one asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		status, _ := cmd.Flags().GetString("status")
		idContains, _ := cmd.Flags().GetString("id-contains")
		port, _ := cmd.Flags().GetInt("port")
		protocol, _ := cmd.Flags().GetString("protocol")
		details, _ := cmd.Flags().GetBool("details")
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			resp, err := client.ListAssetVulnerabilities(ctx, args[0], page, size)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			findings := filterFindings(resources(resp), status, idContains, port, protocol)
			if len(findings) == 0 {
				p.Warn("No findings found for asset %s", args[0])
				return nil
			}
			headers := []string{"Vuln ID", "Status", "Instances", "Since"}
			if details {
				headers = []string{"Vuln ID", "Title", "Severity", "Status", "Instances", "Since"}
			}
			rows := make([][]string, 0, len(findings))
			for _, f := range findings {
				vid := str(f, "id")
				base := []string{vid, str(f, "status"), str(f, "instances"), str(f, "since")}
				if details {
					title, severity := "N/A", "N/A"
					if vdef, err := client.GetVulnerability(ctx, vid); err == nil {
						if t := str(vdef, "title"); t != "" {
							title = t
						}
						if s := str(vdef, "severity"); s != "" {
							severity = s
						}
					}
					base = []string{vid, format.Truncate(title, 50), severity, str(f, "status"), str(f, "instances"), str(f, "since")}
				}
				rows = append(rows, base)
			}
			if err := p.Table(fmt.Sprintf("Asset %s Findings (page %d)", args[0], page), headers, rows); err != nil {
				return err
			}
			p.Dim("Found %d finding(s) for asset %s", len(findings), args[0])
			return nil
		})(cmd, args)
	},
}

// filterFindings applies the client-side finding filters.
func filterFindings(findings []map[string]any, status, idContains string, port int, protocol string) []map[string]any {
	var out []map[string]any
	for _, f := range findings {
		if status != "" && !strings.EqualFold(str(f, "status"), status) {
			continue
		}
		if idContains != "" && !strings.Contains(strings.ToLower(str(f, "id")), strings.ToLower(idContains)) {
			continue
		}
		if port > 0 || protocol != "" {
			matched := false
			for _, r := range sliceOfMaps(f["results"]) {
				portOK := port <= 0
				if n, ok := r["port"].(float64); ok && int(n) == port {
					portOK = true
				}
				protoOK := protocol == "" || strings.EqualFold(str(r, "protocol"), protocol)
				if portOK && protoOK {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

var vmConsoleScansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		siteID, _ := cmd.Flags().GetString("site-id")
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			var resp map[string]any
			var err error
			if siteID != "" {
				resp, err = client.ListSiteScans(ctx, siteID, page, size)
			} else {
				resp, err = client.ListScans(ctx, page, size)
			}
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			rows := make([][]string, 0)
			for _, s := range resources(resp) {
				site := str(s, "siteName")
				if site == "" {
					site = str(s, "siteId")
				}
				rows = append(rows, []string{
					str(s, "id"),
					str(s, "scanName"),
					site,
					str(s, "status"),
					str(s, "startTime"),
					str(s, "endTime"),
				})
			}
			return p.Table(fmt.Sprintf("Scans (page %d)", page), []string{"ID", "Scan Name", "Site", "Status", "Start", "End"}, rows)
		})(cmd, args)
	},
}

var vmConsoleScansGetCmd = &cobra.Command{
	Use:   "get <scan-id>",
	Short: "Get scan details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			scan, err := client.GetScan(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(scan)
			}
			var rows [][]string
			for _, field := range []string{
				"id", "scanName", "siteId", "siteName", "status", "assets",
				"scanType", "startedByUsername", "engineName", "startTime", "endTime", "duration",
			} {
				if v := str(scan, field); v != "" {
					rows = append(rows, []string{field, v})
				}
			}
			if vulns, ok := scan["vulnerabilities"].(map[string]any); ok {
				for _, key := range []string{"total", "critical", "severe", "moderate"} {
					rows = append(rows, []string{"vulnerabilities." + key, str(vulns, key)})
				}
			}
			return p.Table("Scan "+args[0], []string{"Field", "Value"}, rows)
		})(cmd, args)
	},
}

var vmConsoleScansStartCmd = &cobra.Command{
	Use:   "start <site-id>",
	Short: "Start a scan for a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		templateID, _ := cmd.Flags().GetString("template-id")
		engineID, _ := cmd.Flags().GetInt("engine-id")
		hosts, _ := cmd.Flags().GetStringSlice("hosts")
		assetGroupIDs, _ := cmd.Flags().GetString("asset-group-ids")
		overrideBlackout, _ := cmd.Flags().GetBool("override-blackout")
		var groups []int
		if assetGroupIDs != "" {
			for _, part := range strings.Split(assetGroupIDs, ",") {
				n, err := strconv.Atoi(strings.TrimSpace(part))
				if err != nil {
					return fmt.Errorf("invalid asset group IDs, expected comma-separated integers: %w", err)
				}
				groups = append(groups, n)
			}
		}
		return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
			resp, err := client.StartSiteScan(ctx, args[0], vmconsole.ScanOptions{
				Name:             name,
				TemplateID:       templateID,
				EngineID:         engineID,
				Hosts:            hosts,
				AssetGroupIDs:    groups,
				OverrideBlackout: overrideBlackout,
			})
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			fmt.Fprintf(p.Out, "Scan started for site %s (scan id %s)\n", args[0], orNA(str(resp, "id")))
			return nil
		})(cmd, args)
	},
}

func scanActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <scan-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(func(ctx context.Context, cfg *config.Config, client *vmconsole.Client, p *format.Printer) error {
				if _, err := client.UpdateScanStatus(ctx, args[0], action); err != nil {
					return err
				}
				fmt.Fprintf(p.Out, "Scan %s: %s requested\n", args[0], action)
				return nil
			})(cmd, args)
		},
	}
}

// Cloud API v4 commands. Asset ids carry a long tenant prefix which is
// detected once, saved to config, and stripped for display.

var vmAssetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Assets (Cloud API v4)",
}

var vmSitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Sites (Cloud API v4)",
}

var vmVulnsCmd = &cobra.Command{
	Use:   "vulns",
	Short: "Vulnerabilities (Cloud API v4)",
}

// detectTenantPrefix finds the longest common prefix across asset ids,
// cut at its last dash. Prefixes shorter than a tenant id are ignored.
func detectTenantPrefix(assets []map[string]any) string {
	var ids []string
	for _, a := range assets {
		if id := str(a, "id"); id != "" {
			ids = append(ids, id)
		}
		if len(ids) == 10 {
			break
		}
	}
	if len(ids) < 2 {
		return ""
	}
	common := ids[0]
	for _, id := range ids[1:] {
		for !strings.HasPrefix(id, common) {
			common = common[:len(common)-1]
			if common == "" {
				return ""
			}
		}
	}
	lastDash := strings.LastIndex(common, "-")
	if lastDash <= 20 {
		return ""
	}
	return common[:lastDash+1]
}

// saveTenantPrefix persists a newly detected prefix.
func saveTenantPrefix(cfg *config.Config, p *format.Printer, prefix string) {
	if prefix == "" || cfg.VMTenantPrefix != "" {
		return
	}
	cfg.VMTenantPrefix = prefix
	if err := cfg.Save(); err != nil {
		log.Debug().Err(err).Msg("could not persist tenant prefix")
		return
	}
	p.Dim("Auto-detected and saved tenant prefix: %s...", format.Truncate(prefix, 30))
}

func shortenAssetID(cfg *config.Config, id string) string {
	if cfg.VMTenantPrefix != "" && strings.HasPrefix(id, cfg.VMTenantPrefix) {
		return id[len(cfg.VMTenantPrefix):]
	}
	return id
}

func expandAssetID(cfg *config.Config, id string) string {
	if cfg.VMTenantPrefix != "" && !strings.HasPrefix(id, cfg.VMTenantPrefix) {
		return cfg.VMTenantPrefix + id
	}
	return id
}

// cloudPageInfo prints cursor and total hints after a cloud listing.
func cloudPageInfo(p *format.Printer, resp map[string]any) {
	if cursor := insight.VMPageCursor(resp); cursor != "" {
		p.Dim("Next page cursor: %s", cursor)
	}
	if meta, ok := resp["metadata"].(map[string]any); ok {
		if total := str(meta, "totalResources"); total != "" {
			p.Dim("Total resources: %s", total)
		}
	}
}

var vmAssetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cursor, _ := cmd.Flags().GetString("cursor")
		size, _ := cmd.Flags().GetInt("size")
		siteID, _ := cmd.Flags().GetString("site-id")
		assetID, _ := cmd.Flags().GetString("asset-id")
		hostname, _ := cmd.Flags().GetString("hostname")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			opts := insight.VMSearchOptions{Cursor: cursor, Size: size}
			if siteID != "" {
				opts.SiteIDs = []string{siteID}
			}
			if assetID != "" {
				opts.AssetIDs = []string{expandAssetID(cfg, assetID)}
			}
			resp, err := client.SearchVMAssets(ctx, opts)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			assets := sliceOfMaps(resp["data"])
			if cfg.VMTenantPrefix == "" {
				saveTenantPrefix(cfg, p, detectTenantPrefix(assets))
			}
			if hostname != "" {
				wanted := strings.ToLower(hostname)
				var filtered []map[string]any
				for _, a := range assets {
					if strings.Contains(strings.ToLower(str(a, "host_name")), wanted) {
						filtered = append(filtered, a)
					}
				}
				assets = filtered
				if len(assets) == 0 {
					p.Warn("No assets found matching hostname filter: %q", hostname)
					return nil
				}
			}
			rows := make([][]string, 0, len(assets))
			for _, a := range assets {
				rows = append(rows, []string{
					shortenAssetID(cfg, str(a, "id")),
					str(a, "host_name"),
					str(a, "ip"),
					format.Truncate(str(a, "os_description"), 35),
					str(a, "risk_score"),
					str(a, "critical_vulnerabilities"),
					dateOnly(str(a, "last_assessed_for_vulnerabilities")),
				})
			}
			if err := p.Table("Assets - Cloud API v4", []string{"ID", "Hostname", "IP Address", "OS", "Risk Score", "Critical Vulns", "Last Assessed"}, rows); err != nil {
				return err
			}
			if cfg.VMTenantPrefix != "" {
				p.Dim("Short IDs shown (tenant prefix %s...)", format.Truncate(cfg.VMTenantPrefix, 20))
			}
			cloudPageInfo(p, resp)
			return nil
		})
	},
}

var vmAssetsGetCmd = &cobra.Command{
	Use:   "get <asset-id>",
	Short: "Get asset details (short or full ID)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			asset, err := client.GetVMAsset(ctx, expandAssetID(cfg, args[0]))
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(asset)
			}
			if data, ok := asset["data"].(map[string]any); ok {
				asset = data
			}
			var rows [][]string
			for _, field := range []struct{ label, key string }{
				{"ID", "id"},
				{"Hostname", "host_name"},
				{"IP Address", "ip"},
				{"MAC Address", "mac"},
				{"OS Description", "os_description"},
				{"OS Family", "os_family"},
				{"OS Version", "os_version"},
				{"Risk Score", "risk_score"},
				{"Last Assessed", "last_assessed_for_vulnerabilities"},
				{"Last Scan Start", "last_scan_start"},
				{"Last Scan End", "last_scan_end"},
				{"Exploits", "exploits"},
				{"Malware Kits", "malware_kits"},
				{"Critical Vulns", "critical_vulnerabilities"},
				{"Severe Vulns", "severe_vulnerabilities"},
				{"Moderate Vulns", "moderate_vulnerabilities"},
			} {
				if v := str(asset, field.key); v != "" {
					rows = append(rows, []string{field.label, v})
				}
			}
			return p.Table("Asset Details - "+shortenAssetID(cfg, str(asset, "id")), []string{"Field", "Value"}, rows)
		})
	},
}

var vmSitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		cursor, _ := cmd.Flags().GetString("cursor")
		size, _ := cmd.Flags().GetInt("size")
		details, _ := cmd.Flags().GetBool("details")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ListVMSites(ctx, cursor, size, details)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			rows := make([][]string, 0)
			for _, s := range sliceOfMaps(resp["data"]) {
				rows = append(rows, []string{str(s, "name"), str(s, "type")})
			}
			if err := p.Table("Sites - Cloud API v4", []string{"Name", "Type"}, rows); err != nil {
				return err
			}
			cloudPageInfo(p, resp)
			return nil
		})
	},
}

var vmVulnsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Search vulnerabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		cursor, _ := cmd.Flags().GetString("cursor")
		size, _ := cmd.Flags().GetInt("size")
		siteID, _ := cmd.Flags().GetString("site-id")
		assetID, _ := cmd.Flags().GetString("asset-id")
		vulnID, _ := cmd.Flags().GetString("vuln-id")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			opts := insight.VMSearchOptions{Cursor: cursor, Size: size}
			if siteID != "" {
				opts.SiteIDs = []string{siteID}
			}
			if assetID != "" {
				opts.AssetIDs = []string{expandAssetID(cfg, assetID)}
			}
			if vulnID != "" {
				opts.VulnerabilityIDs = []string{vulnID}
			}
			resp, err := client.SearchVMVulnerabilities(ctx, opts)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			rows := make([][]string, 0)
			for _, v := range sliceOfMaps(resp["data"]) {
				rows = append(rows, []string{
					str(v, "id"),
					str(v, "cves"),
					format.Truncate(str(v, "description"), 60),
					str(v, "cvss_v3_score"),
					dateOnly(str(v, "added")),
					format.Truncate(str(v, "categories"), 30),
				})
			}
			if err := p.Table("Vulnerabilities - Cloud API v4", []string{"ID", "CVE", "Description", "CVSS v3", "Added", "Categories"}, rows); err != nil {
				return err
			}
			cloudPageInfo(p, resp)
			return nil
		})
	},
}

var vmBulkExportCmd = &cobra.Command{
	Use:   "bulk-export",
	Short: "Bulk data exports via GraphQL",
}

func runExport(cmd *cobra.Command, exportType insight.ExportType) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	noDownload, _ := cmd.Flags().GetBool("no-download")
	return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
		status, err := client.StartExport(ctx, exportType)
		if err != nil {
			return err
		}
		if noDownload {
			if p.JSON() {
				return p.WriteJSON(status)
			}
			fmt.Fprintf(p.Out, "Export started: %s (%s)\n", status.ID, status.Status)
			p.Dim("Check progress with: r7 vm bulk-export status %s", status.ID)
			return nil
		}
		p.Dim("Export %s started, waiting for completion...", status.ID)
		status, err = client.WaitForExport(ctx, status.ID, time.Duration(cfg.QueryTimeout)*time.Second)
		if err != nil {
			return err
		}
		files, err := client.DownloadExportFiles(ctx, status, outputDir)
		if err != nil {
			return err
		}
		if p.JSON() {
			return p.WriteJSON(map[string]any{"export": status, "files": files})
		}
		fmt.Fprintf(p.Out, "Export %s complete, downloaded %d file(s) to %s\n", status.ID, len(files), outputDir)
		for _, f := range files {
			p.Dim("  %s", f)
		}
		return nil
	})
}

var vmExportPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Export policy data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, insight.ExportPolicy)
	},
}

var vmExportVulnsCmd = &cobra.Command{
	Use:   "vulns",
	Short: "Export vulnerability data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, insight.ExportVulnerability)
	},
}

var vmExportStatusCmd = &cobra.Command{
	Use:   "status <export-id>",
	Short: "Check export progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			var status *insight.ExportStatus
			var err error
			if wait {
				status, err = client.WaitForExport(ctx, args[0], time.Duration(cfg.QueryTimeout)*time.Second)
			} else {
				status, err = client.ExportStatus(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(status)
			}
			rows := [][]string{
				{"Export ID", status.ID},
				{"Status", status.Status},
				{"Files", fmt.Sprintf("%d", len(status.AllURLs()))},
			}
			return p.Table("Export Status", []string{"Field", "Value"}, rows)
		})
	},
}

var vmExportDownloadCmd = &cobra.Command{
	Use:   "download <export-id>",
	Short: "Download a completed export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output-dir")
		showURLs, _ := cmd.Flags().GetBool("show-urls")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			status, err := client.ExportStatus(ctx, args[0])
			if err != nil {
				return err
			}
			if !status.Complete() {
				return fmt.Errorf("export %s is not complete (status %s)", status.ID, status.Status)
			}
			if showURLs {
				if p.JSON() {
					return p.WriteJSON(status.AllURLs())
				}
				for _, u := range status.AllURLs() {
					fmt.Fprintln(p.Out, u)
				}
				return nil
			}
			files, err := client.DownloadExportFiles(ctx, status, outputDir)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(map[string]any{"files": files})
			}
			fmt.Fprintf(p.Out, "Downloaded %d file(s) to %s\n", len(files), outputDir)
			return nil
		})
	},
}

func init() {
	pageFlags := func(cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.Flags().Int("page", 0, "Page number")
			c.Flags().Int("size", 200, "Page size")
		}
	}
	pageFlags(vmConsoleSitesListCmd, vmConsoleAssetsListCmd, vmConsoleVulnsListCmd, vmConsoleScansListCmd, vmConsoleFindingsAssetCmd)

	vmConsoleAssetsListCmd.Flags().String("site-id", "", "Limit to assets in a specific site")
	vmConsoleAssetsListCmd.Flags().String("hostname", "", "Filter by hostname substring")
	vmConsoleAssetsDeleteCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")

	vmConsoleVulnsListCmd.Flags().String("severity", "", "Filter by severity (Critical, Severe, Moderate, Low)")
	vmConsoleVulnsListCmd.Flags().String("cve", "", "Filter by CVE substring")

	vmConsoleFindingsAssetCmd.Flags().String("status", "", "Filter by finding status")
	vmConsoleFindingsAssetCmd.Flags().String("id-contains", "", "Filter by vulnerability id substring")
	vmConsoleFindingsAssetCmd.Flags().Int("port", 0, "Filter by port present in results")
	vmConsoleFindingsAssetCmd.Flags().String("protocol", "", "Filter by protocol present in results")
	vmConsoleFindingsAssetCmd.Flags().Bool("details", false, "Fetch vulnerability details to enrich Title/Severity")

	vmConsoleScansListCmd.Flags().String("site-id", "", "Limit to scans in a specific site")
	vmConsoleScansStartCmd.Flags().String("name", "", "Scan name")
	vmConsoleScansStartCmd.Flags().String("template-id", "", "Scan template ID")
	vmConsoleScansStartCmd.Flags().Int("engine-id", 0, "Scan engine ID")
	vmConsoleScansStartCmd.Flags().StringSlice("hosts", nil, "Specific hosts to scan, repeatable")
	vmConsoleScansStartCmd.Flags().String("asset-group-ids", "", "Comma-separated asset group IDs")
	vmConsoleScansStartCmd.Flags().Bool("override-blackout", false, "Override scan blackout window")

	cursorFlags := func(cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.Flags().String("cursor", "", "Cursor for pagination")
			c.Flags().Int("size", 50, "Results per page")
		}
	}
	cursorFlags(vmAssetsListCmd, vmSitesListCmd, vmVulnsListCmd)
	vmAssetsListCmd.Flags().String("site-id", "", "Filter by site ID")
	vmAssetsListCmd.Flags().String("asset-id", "", "Filter by specific asset ID")
	vmAssetsListCmd.Flags().String("hostname", "", "Filter by hostname substring")
	vmSitesListCmd.Flags().Bool("details", false, "Include detailed site information")
	vmVulnsListCmd.Flags().String("site-id", "", "Filter by site ID")
	vmVulnsListCmd.Flags().String("asset-id", "", "Filter by asset ID")
	vmVulnsListCmd.Flags().String("vuln-id", "", "Filter by vulnerability ID")

	for _, c := range []*cobra.Command{vmExportPolicyCmd, vmExportVulnsCmd} {
		c.Flags().String("output-dir", "./exports", "Directory to save exported files")
		c.Flags().Bool("no-download", false, "Only initiate export without waiting or downloading")
	}
	vmExportStatusCmd.Flags().Bool("wait", false, "Wait for export to complete")
	vmExportDownloadCmd.Flags().String("output-dir", "./exports", "Directory to save exported files")
	vmExportDownloadCmd.Flags().Bool("show-urls", false, "Show download URLs without downloading")

	vmConsoleSitesCmd.AddCommand(vmConsoleSitesListCmd, vmConsoleSitesGetCmd)
	vmConsoleAssetsCmd.AddCommand(vmConsoleAssetsListCmd, vmConsoleAssetsGetCmd, vmConsoleAssetsDeleteCmd)
	vmConsoleVulnsCmd.AddCommand(vmConsoleVulnsListCmd, vmConsoleVulnsGetCmd)
	vmConsoleFindingsCmd.AddCommand(vmConsoleFindingsAssetCmd)
	vmConsoleScansCmd.AddCommand(
		vmConsoleScansListCmd, vmConsoleScansGetCmd, vmConsoleScansStartCmd,
		scanActionCmd("stop", "Stop a running scan"),
		scanActionCmd("pause", "Pause a running scan"),
		scanActionCmd("resume", "Resume a paused scan"),
	)
	vmConsoleCmd.AddCommand(
		vmConsoleConfigTestCmd, vmConsoleSitesCmd, vmConsoleAssetsCmd,
		vmConsoleVulnsCmd, vmConsoleScansCmd, vmConsoleFindingsCmd,
	)
	vmAssetsCmd.AddCommand(vmAssetsListCmd, vmAssetsGetCmd)
	vmSitesCmd.AddCommand(vmSitesListCmd)
	vmVulnsCmd.AddCommand(vmVulnsListCmd)
	vmBulkExportCmd.AddCommand(vmExportPolicyCmd, vmExportVulnsCmd, vmExportStatusCmd, vmExportDownloadCmd)
	vmCmd.AddCommand(vmConsoleCmd, vmAssetsCmd, vmSitesCmd, vmVulnsCmd, vmBulkExportCmd)
	rootCmd.AddCommand(vmCmd)
}
