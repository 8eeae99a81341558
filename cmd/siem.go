package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/config"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
)

var siemCmd = &cobra.Command{
	Use:   "siem",
	Short: "InsightIDR investigations, alerts, agents and log search",
}

var siemInvestigationCmd = &cobra.Command{
	Use:   "investigation",
	Short: "Manage investigations",
}

var siemAlertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Search and update alerts",
}

var siemAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Insight Agent fleet",
}

var siemCommentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Investigation comments",
}

// shortRRN extracts the trailing ID segment from a full RRN for display.
func shortRRN(rrn string) string {
	parts := strings.Split(rrn, ":")
	if len(parts) >= 6 {
		return parts[len(parts)-1]
	}
	return rrn
}

// resolveInvestigationRRN expands a short investigation ID to a full RRN,
// persisting any organization id discovered along the way.
func resolveInvestigationRRN(ctx context.Context, client *insight.Client, cfg *config.Config, id string) string {
	return client.ResolveInvestigationRRN(ctx, id, cfg.OrganizationID, func(orgID string) {
		cfg.OrganizationID = orgID
		if err := cfg.Save(); err == nil {
			log.Debug().Str("org_id", orgID).Msg("saved discovered organization id")
		}
	})
}

// investigationAssignee renders the assignee of an investigation object.
func investigationAssignee(inv map[string]any) string {
	assignee, ok := inv["assignee"].(map[string]any)
	if !ok || assignee == nil {
		return "Unassigned"
	}
	if name := str(assignee, "name"); name != "" {
		return name
	}
	if email := str(assignee, "email"); email != "" {
		return email
	}
	return "Unknown"
}

// dateOnly trims an ISO 8601 timestamp down to its date part.
func dateOnly(ts string) string {
	if i := strings.Index(ts, "T"); i > 0 {
		return ts[:i]
	}
	return ts
}

var siemInvestigationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List investigations",
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, _ := cmd.Flags().GetStringSlice("status")
		priorities, _ := cmd.Flags().GetStringSlice("priority")
		assignee, _ := cmd.Flags().GetString("assignee")
		startTime, _ := cmd.Flags().GetString("start-time")
		endTime, _ := cmd.Flags().GetString("end-time")
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			page, err := client.ListInvestigations(ctx, insight.InvestigationFilter{
				Statuses:   strings.Join(statuses, ","),
				Priorities: strings.Join(priorities, ","),
				Assignee:   assignee,
				StartTime:  startTime,
				EndTime:    endTime,
				Size:       limit,
			})
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(page)
			}
			title := "Investigations"
			if limit > 0 {
				title = fmt.Sprintf("Investigations (limit %d)", limit)
			}
			rows := make([][]string, 0, len(page.Data))
			for _, inv := range page.Data {
				rows = append(rows, []string{
					shortRRN(str(inv, "rrn")),
					format.Truncate(orNA(str(inv, "title")), 50),
					orNA(str(inv, "status")),
					orNA(str(inv, "priority")),
					investigationAssignee(inv),
					dateOnly(orNA(str(inv, "created_time"))),
				})
			}
			return p.Table(title, []string{"ID", "Title", "Status", "Priority", "Assignee", "Created"}, rows)
		})
	},
}

var siemInvestigationGetCmd = &cobra.Command{
	Use:   "get <investigation-id>",
	Short: "Get investigation details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			rrn := resolveInvestigationRRN(ctx, client, cfg, args[0])
			inv, err := client.GetInvestigation(ctx, rrn)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(inv)
			}
			rows := [][]string{
				{"ID", shortRRN(str(inv, "rrn"))},
				{"Title", orNA(str(inv, "title"))},
				{"Status", orNA(str(inv, "status"))},
				{"Priority", orNA(str(inv, "priority"))},
				{"Disposition", orNA(str(inv, "disposition"))},
				{"Assignee", investigationAssignee(inv)},
				{"Created", orNA(str(inv, "created_time"))},
				{"Updated", orNA(str(inv, "last_accessed"))},
			}
			return p.Table("Investigation: "+orNA(str(inv, "title")), []string{"Field", "Value"}, rows)
		})
	},
}

var siemInvestigationCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an investigation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority, _ := cmd.Flags().GetString("priority")
		status, _ := cmd.Flags().GetString("status")
		disposition, _ := cmd.Flags().GetString("disposition")
		assignee, _ := cmd.Flags().GetString("assignee")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			body := map[string]any{
				"title":    args[0],
				"priority": strings.ToUpper(priority),
				"status":   strings.ToUpper(status),
			}
			if disposition != "" {
				body["disposition"] = strings.ToUpper(disposition)
			}
			if assignee != "" {
				body["assignee"] = map[string]any{"email": assignee}
			}
			inv, err := client.CreateInvestigation(ctx, body)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(inv)
			}
			fmt.Fprintf(p.Out, "Created investigation %s: %s\n", shortRRN(str(inv, "rrn")), str(inv, "title"))
			return nil
		})
	},
}

var siemInvestigationUpdateCmd = &cobra.Command{
	Use:   "update <investigation-id>",
	Short: "Update investigation fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		multiCustomer, _ := cmd.Flags().GetBool("multi-customer")
		update := map[string]any{}
		for flag, field := range map[string]string{
			"title":          "title",
			"status":         "status",
			"priority":       "priority",
			"disposition":    "disposition",
			"assignee-email": "assignee_email",
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				if field == "title" || field == "assignee_email" {
					update[field] = v
				} else {
					update[field] = strings.ToUpper(v)
				}
			}
		}
		if len(update) == 0 {
			return fmt.Errorf("nothing to update, pass at least one of --title, --status, --priority, --disposition, --assignee-email")
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			rrn := resolveInvestigationRRN(ctx, client, cfg, args[0])
			inv, err := client.UpdateInvestigation(ctx, rrn, update, multiCustomer)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(inv)
			}
			fmt.Fprintf(p.Out, "Updated investigation %s\n", shortRRN(str(inv, "rrn")))
			return nil
		})
	},
}

var siemInvestigationSetStatusCmd = &cobra.Command{
	Use:   "set-status <investigation-id> <OPEN|INVESTIGATING|CLOSED>",
	Short: "Set investigation status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			rrn := resolveInvestigationRRN(ctx, client, cfg, args[0])
			inv, err := client.SetInvestigationStatus(ctx, rrn, strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(inv)
			}
			fmt.Fprintf(p.Out, "Investigation %s status set to %s\n", shortRRN(str(inv, "rrn")), str(inv, "status"))
			return nil
		})
	},
}

var siemInvestigationSetPriorityCmd = &cobra.Command{
	Use:   "set-priority <investigation-id> <LOW|MEDIUM|HIGH|CRITICAL>",
	Short: "Set investigation priority",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			rrn := resolveInvestigationRRN(ctx, client, cfg, args[0])
			inv, err := client.SetInvestigationPriority(ctx, rrn, strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(inv)
			}
			fmt.Fprintf(p.Out, "Investigation %s priority set to %s\n", shortRRN(str(inv, "rrn")), str(inv, "priority"))
			return nil
		})
	},
}

var siemInvestigationAssignCmd = &cobra.Command{
	Use:   "assign <investigation-id> <assignee-email>",
	Short: "Assign an investigation to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			rrn := resolveInvestigationRRN(ctx, client, cfg, args[0])
			inv, err := client.AssignInvestigation(ctx, rrn, args[1])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(inv)
			}
			fmt.Fprintf(p.Out, "Investigation %s assigned to %s\n", shortRRN(str(inv, "rrn")), investigationAssignee(inv))
			return nil
		})
	},
}

var siemInvestigationAlertsCmd = &cobra.Command{
	Use:   "alerts <investigation-id>",
	Short: "List alerts attached to an investigation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		multiCustomer, _ := cmd.Flags().GetBool("multi-customer")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			rrn := resolveInvestigationRRN(ctx, client, cfg, args[0])
			resp, err := client.ListInvestigationAlerts(ctx, rrn, 0, limit, multiCustomer)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			alerts := sliceOfMaps(resp["data"])
			rows := make([][]string, 0, len(alerts))
			for _, alert := range alerts {
				rows = append(rows, []string{
					orNA(str(alert, "id")),
					format.Truncate(orNA(str(alert, "title")), 50),
					orNA(str(alert, "type")),
					dateOnly(orNA(str(alert, "created_time"))),
				})
			}
			return p.Table("Alerts for "+shortRRN(rrn), []string{"ID", "Title", "Type", "Created"}, rows)
		})
	},
}

var siemCommentListCmd = &cobra.Command{
	Use:   "list <investigation-id>",
	Short: "List comments on an investigation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			target := resolveInvestigationRRN(ctx, client, cfg, args[0])
			resp, err := client.ListComments(ctx, target)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			comments := sliceOfMaps(resp["data"])
			rows := make([][]string, 0, len(comments))
			for _, c := range comments {
				rows = append(rows, []string{
					orNA(str(c, "rrn")),
					format.Truncate(orNA(str(c, "body")), 60),
					orNA(str(c, "creator")),
					dateOnly(orNA(str(c, "created_time"))),
				})
			}
			return p.Table("Comments", []string{"RRN", "Body", "Creator", "Created"}, rows)
		})
	},
}

var siemCommentCreateCmd = &cobra.Command{
	Use:   "create <investigation-id> <body>",
	Short: "Add a comment to an investigation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			target := resolveInvestigationRRN(ctx, client, cfg, args[0])
			comment, err := client.CreateComment(ctx, target, args[1])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(comment)
			}
			fmt.Fprintf(p.Out, "Comment added to %s\n", shortRRN(target))
			return nil
		})
	},
}

var siemCommentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-rrn>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			if err := client.DeleteComment(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(p.Out, "Comment deleted\n")
			return nil
		})
	},
}

var siemAlertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		rrnsOnly, _ := cmd.Flags().GetBool("rrns-only")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.SearchAlerts(ctx, insight.AlertSearch{
				RRNsOnly: rrnsOnly,
				Size:     limit,
			})
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			if rrnsOnly {
				rrns, _ := resp["rrns"].([]any)
				rows := make([][]string, 0, len(rrns))
				for _, v := range rrns {
					rrn, _ := v.(string)
					rows = append(rows, []string{shortRRN(rrn), rrn})
				}
				return p.Table(fmt.Sprintf("Alert RRNs (limit %d)", limit), []string{"Alert ID", "Full RRN"}, rows)
			}
			alerts := sliceOfMaps(resp["alerts"])
			rows := make([][]string, 0, len(alerts))
			for _, alert := range alerts {
				rows = append(rows, []string{
					shortRRN(str(alert, "rrn")),
					format.Truncate(orNA(str(alert, "title")), 50),
					orNA(str(alert, "status")),
					orNA(str(alert, "priority")),
					dateOnly(orNA(str(alert, "created_at"))),
				})
			}
			return p.Table(fmt.Sprintf("Alerts (limit %d)", limit), []string{"ID", "Title", "Status", "Priority", "Created"}, rows)
		})
	},
}

var siemAlertGetCmd = &cobra.Command{
	Use:   "get <alert-rrn>",
	Short: "Get alert details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			alert, err := client.GetAlert(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(alert)
			}
			rows := [][]string{
				{"ID", shortRRN(str(alert, "rrn"))},
				{"Title", orNA(str(alert, "title"))},
				{"Status", orNA(str(alert, "status"))},
				{"Priority", orNA(str(alert, "priority"))},
				{"Disposition", orNA(str(alert, "disposition"))},
				{"Type", orNA(str(alert, "alert_type"))},
				{"Source", orNA(str(alert, "alert_source"))},
				{"Created", orNA(str(alert, "created_at"))},
				{"RRN", str(alert, "rrn")},
			}
			if inv := str(alert, "investigation_rrn"); inv != "" {
				rows = append(rows, []string{"Investigation", shortRRN(inv)})
			}
			return p.Table("Alert: "+orNA(str(alert, "title")), []string{"Field", "Value"}, rows)
		})
	},
}

var siemAlertUpdateCmd = &cobra.Command{
	Use:   "update <alert-rrn>",
	Short: "Update alert fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		update := map[string]any{}
		for flag, field := range map[string]string{
			"status":            "status",
			"disposition":       "disposition",
			"priority":          "priority",
			"assignee-id":       "assignee_id",
			"investigation-rrn": "investigation_rrn",
			"comment":           "comment",
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				switch field {
				case "status", "disposition", "priority":
					update[field] = strings.ToUpper(v)
				default:
					update[field] = v
				}
			}
		}
		if addTags, _ := cmd.Flags().GetString("add-tags"); addTags != "" {
			update["tags_to_add"] = strings.Split(addTags, ",")
		}
		if removeTags, _ := cmd.Flags().GetString("remove-tags"); removeTags != "" {
			update["tags_to_remove"] = strings.Split(removeTags, ",")
		}
		if len(update) == 0 {
			return fmt.Errorf("nothing to update, pass at least one update flag")
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			alert, err := client.UpdateAlert(ctx, args[0], update)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(alert)
			}
			fmt.Fprintf(p.Out, "Updated alert %s\n", shortRRN(args[0]))
			return nil
		})
	},
}

// agentOS renders a concise OS column for an agent row.
func agentOS(a insight.Agent) string {
	if a.OSVendor != "" && a.OSVersion != "" {
		return a.OSVendor + " " + a.OSVersion
	}
	if a.Platform != "" {
		return a.Platform
	}
	return "Unknown"
}

var siemAgentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployed Insight Agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			orgID, err := resolveOrgID(ctx, client, cfg)
			if err != nil {
				return err
			}
			agents, err := client.ListAgents(ctx, orgID, limit)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(map[string]any{"agents": agents, "total_count": len(agents)})
			}
			rows := make([][]string, 0, len(agents))
			for _, a := range agents {
				rows = append(rows, []string{
					format.Truncate(orNA(a.Hostname), 17),
					orNA(a.AssetID),
					format.Truncate(agentOS(a), 13),
					orNA(a.PrivateIP),
					orNA(a.AgentStatus),
				})
			}
			if err := p.Table("Insight Agents", []string{"Hostname", "Asset ID", "OS", "Private IP", "Status"}, rows); err != nil {
				return err
			}
			p.Dim("Found %d agents", len(agents))
			return nil
		})
	},
}

var siemAgentsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize agent fleet health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			orgID, err := resolveOrgID(ctx, client, cfg)
			if err != nil {
				return err
			}
			agents, err := client.ListAgents(ctx, orgID, 1000)
			if err != nil {
				return err
			}
			summary := insight.SummarizeAgents(agents)
			if p.JSON() {
				return p.WriteJSON(summary)
			}
			if summary.Total == 0 {
				p.Warn("No agents found")
				return nil
			}
			statuses := make([]string, 0, len(summary.Statuses))
			for status := range summary.Statuses {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{status, fmt.Sprintf("%d", summary.Statuses[status])})
			}
			if err := p.Table(fmt.Sprintf("Agent Status Summary (%d agents)", summary.Total), []string{"Status", "Count"}, rows); err != nil {
				return err
			}
			if len(summary.Versions) > 1 {
				type versionCount struct {
					version string
					count   int
				}
				versions := make([]versionCount, 0, len(summary.Versions))
				for v, n := range summary.Versions {
					versions = append(versions, versionCount{v, n})
				}
				sort.Slice(versions, func(i, j int) bool { return versions[i].count > versions[j].count })
				vrows := make([][]string, 0, len(versions))
				for _, vc := range versions {
					pct := float64(vc.count) / float64(summary.Total) * 100
					vrows = append(vrows, []string{vc.version, fmt.Sprintf("%d", vc.count), fmt.Sprintf("%.1f%%", pct)})
				}
				return p.Table("Agent Versions", []string{"Version", "Count", "Percentage"}, vrows)
			}
			return nil
		})
	},
}

var siemAgentsShowCmd = &cobra.Command{
	Use:   "show <asset-id>",
	Short: "Show one agent in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			orgID, err := resolveOrgID(ctx, client, cfg)
			if err != nil {
				return err
			}
			agent, err := client.GetAgent(ctx, orgID, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(agent)
			}
			rows := [][]string{
				{"Hostname", orNA(agent.Hostname)},
				{"Platform", orNA(agent.Platform)},
				{"OS Description", orNA(agent.OSDescription)},
				{"Host Type", orNA(agent.HostType)},
				{"Private IP", orNA(agent.PrivateIP)},
				{"Public IP", orNA(agent.PublicIP)},
				{"MAC Address", orNA(agent.MACAddress)},
				{"Agent Version", orNA(agent.AgentVersion)},
				{"Agent Status", orNA(agent.AgentStatus)},
				{"Deploy Time", orNA(agent.DeployTime)},
				{"Last Update", orNA(agent.LastUpdate)},
				{"Asset ID", agent.AssetID},
				{"Agent ID", agent.AgentID},
			}
			return p.Table("Agent Details: "+orNA(agent.Hostname), []string{"Property", "Value"}, rows)
		})
	},
}

var siemHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Datasource health metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			metrics, err := client.AllHealthMetrics(ctx)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(metrics)
			}
			rows := make([][]string, 0, len(metrics))
			for _, m := range metrics {
				rows = append(rows, []string{
					format.Truncate(orNA(str(m, "datasource_name")), 40),
					orNA(str(m, "event_source_type")),
					orNA(str(m, "health_status")),
					orNA(str(m, "last_event_time")),
				})
			}
			return p.Table(fmt.Sprintf("Datasource Health (%d datasources)", len(metrics)), []string{"Datasource", "Type", "Status", "Last Event"}, rows)
		})
	},
}

func init() {
	siemInvestigationListCmd.Flags().StringSlice("status", nil, "Filter by status (OPEN, INVESTIGATING, CLOSED)")
	siemInvestigationListCmd.Flags().StringSlice("priority", nil, "Filter by priority (LOW, MEDIUM, HIGH, CRITICAL)")
	siemInvestigationListCmd.Flags().String("assignee", "", "Filter by assignee email address")
	siemInvestigationListCmd.Flags().String("start-time", "", "Start time filter (ISO 8601)")
	siemInvestigationListCmd.Flags().String("end-time", "", "End time filter (ISO 8601)")
	siemInvestigationListCmd.Flags().Int("limit", 0, "Maximum number of investigations to return")

	siemInvestigationCreateCmd.Flags().String("priority", "MEDIUM", "Initial priority")
	siemInvestigationCreateCmd.Flags().String("status", "OPEN", "Initial status")
	siemInvestigationCreateCmd.Flags().String("disposition", "", "Initial disposition")
	siemInvestigationCreateCmd.Flags().String("assignee", "", "Assignee email address")

	siemInvestigationUpdateCmd.Flags().String("title", "", "New title")
	siemInvestigationUpdateCmd.Flags().String("status", "", "New status")
	siemInvestigationUpdateCmd.Flags().String("priority", "", "New priority")
	siemInvestigationUpdateCmd.Flags().String("disposition", "", "New disposition")
	siemInvestigationUpdateCmd.Flags().String("assignee-email", "", "Email of user to assign")
	siemInvestigationUpdateCmd.Flags().Bool("multi-customer", false, "Multi-customer access (requires RRN format)")

	siemInvestigationAlertsCmd.Flags().Int("limit", 20, "Maximum number of alerts to return")
	siemInvestigationAlertsCmd.Flags().Bool("multi-customer", false, "Multi-customer access (requires RRN format)")

	siemAlertListCmd.Flags().Int("limit", 20, "Maximum number of alerts to return")
	siemAlertListCmd.Flags().Bool("rrns-only", false, "Return only alert RRNs without details")

	siemAlertUpdateCmd.Flags().String("status", "", "New status")
	siemAlertUpdateCmd.Flags().String("disposition", "", "New disposition")
	siemAlertUpdateCmd.Flags().String("priority", "", "New priority")
	siemAlertUpdateCmd.Flags().String("assignee-id", "", "User ID to assign the alert to")
	siemAlertUpdateCmd.Flags().String("investigation-rrn", "", "Investigation RRN to associate the alert with")
	siemAlertUpdateCmd.Flags().String("add-tags", "", "Comma-separated tags to add")
	siemAlertUpdateCmd.Flags().String("remove-tags", "", "Comma-separated tags to remove")
	siemAlertUpdateCmd.Flags().String("comment", "", "Reason for the update (audit log)")

	siemAgentsListCmd.Flags().Int("limit", 1000, "Maximum number of agents to return")

	siemCommentCmd.AddCommand(siemCommentListCmd, siemCommentCreateCmd, siemCommentDeleteCmd)
	siemInvestigationCmd.AddCommand(
		siemInvestigationListCmd, siemInvestigationGetCmd, siemInvestigationCreateCmd,
		siemInvestigationUpdateCmd, siemInvestigationSetStatusCmd, siemInvestigationSetPriorityCmd,
		siemInvestigationAssignCmd, siemInvestigationAlertsCmd, siemCommentCmd,
	)
	siemAlertCmd.AddCommand(siemAlertListCmd, siemAlertGetCmd, siemAlertUpdateCmd)
	siemAgentsCmd.AddCommand(siemAgentsListCmd, siemAgentsStatusCmd, siemAgentsShowCmd)
	siemCmd.AddCommand(siemInvestigationCmd, siemAlertCmd, siemAgentsCmd, siemHealthCmd)
	rootCmd.AddCommand(siemCmd)
}
