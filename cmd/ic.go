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

var icCmd = &cobra.Command{
	Use:   "ic",
	Short: "InsightConnect workflows, jobs and global artifacts",
}

var icWorkflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Manage workflows",
}

var icJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect workflow jobs",
}

var icGACmd = &cobra.Command{
	Use:   "ga",
	Short: "Global artifacts",
}

var icGAEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Global artifact entries",
}

// icItems unwraps the { data: { <key>: [...] } } envelope the connect
// API uses, tolerating flatter shapes.
func icItems(resp map[string]any, key string) []map[string]any {
	payload := resp
	if data, ok := resp["data"].(map[string]any); ok {
		payload = data
	}
	if items := sliceOfMaps(payload[key]); items != nil {
		return items
	}
	return sliceOfMaps(payload)
}

// workflowName digs the display name out of the published or unpublished
// version of a workflow object.
func workflowName(wf map[string]any) string {
	for _, version := range []string{"publishedVersion", "unpublishedVersion"} {
		if v, ok := wf[version].(map[string]any); ok {
			if name := str(v, "name"); name != "" {
				return name
			}
		}
	}
	return str(wf, "name")
}

func workflowTags(wf map[string]any) string {
	for _, version := range []string{"publishedVersion", "unpublishedVersion"} {
		if v, ok := wf[version].(map[string]any); ok {
			if tags, ok := v["tags"].([]any); ok && len(tags) > 0 {
				parts := make([]string, 0, len(tags))
				for _, t := range tags {
					parts = append(parts, format.Cell(t))
				}
				return strings.Join(parts, ", ")
			}
		}
	}
	return ""
}

func workflowID(wf map[string]any) string {
	if id := str(wf, "workflowId"); id != "" {
		return id
	}
	return str(wf, "id")
}

var icWorkflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ListWorkflows(ctx, limit, offset)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			workflows := icItems(resp, "workflows")
			rows := make([][]string, 0, len(workflows))
			for _, wf := range workflows {
				rows = append(rows, []string{
					workflowID(wf),
					workflowName(wf),
					str(wf, "state"),
					workflowTags(wf),
				})
			}
			return p.Table("InsightConnect Workflows", []string{"ID", "Name", "State", "Tags"}, rows)
		})
	},
}

var icWorkflowsGetCmd = &cobra.Command{
	Use:   "get <workflow-id>",
	Short: "Get workflow details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.GetWorkflow(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			wf := resp
			if data, ok := resp["data"].(map[string]any); ok {
				if inner, ok := data["workflow"].(map[string]any); ok {
					wf = inner
				} else {
					wf = data
				}
			}
			rows := [][]string{
				{"ID", orNA(workflowID(wf))},
				{"Name", orNA(workflowName(wf))},
				{"State", orNA(str(wf, "state"))},
				{"Tags", orNA(workflowTags(wf))},
				{"Created", orNA(str(wf, "createdAt"))},
				{"Updated", orNA(str(wf, "updatedAt"))},
			}
			return p.Table("Workflow: "+orNA(workflowName(wf)), []string{"Field", "Value"}, rows)
		})
	},
}

// executionJobID finds the job ID in a workflow execution response,
// which nests it differently across API versions.
func executionJobID(resp map[string]any) string {
	if id, ok := nested(resp, "data", "job", "jobId").(string); ok && id != "" {
		return id
	}
	return str(resp, "jobId")
}

var icWorkflowsRunCmd = &cobra.Command{
	Use:   "run <workflow-id>",
	Short: "Execute a workflow's active version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, _ := cmd.Flags().GetStringSlice("param")
		wait, _ := cmd.Flags().GetBool("wait")
		timeout, _ := cmd.Flags().GetInt("timeout")
		interval, _ := cmd.Flags().GetInt("interval")
		values := map[string]any{}
		for _, kv := range params {
			k, v, found := strings.Cut(kv, "=")
			if !found {
				return fmt.Errorf("invalid --param %q, expected key=value", kv)
			}
			values[k] = v
		}
		var input map[string]any
		if len(values) > 0 {
			input = map[string]any{"parameters": map[string]any{"values": values}}
		}
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ExecuteWorkflow(ctx, args[0], input)
			if err != nil {
				return err
			}
			jobID := executionJobID(resp)
			if wait && jobID != "" {
				resp, err = client.WaitForJob(ctx, jobID, time.Duration(timeout)*time.Second, time.Duration(interval)*time.Second)
				if err != nil {
					return err
				}
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			rows := [][]string{
				{"Workflow ID", args[0]},
				{"Status", "Execution accepted"},
			}
			if jobID != "" {
				rows = append(rows, []string{"Job ID", jobID})
				if !wait {
					rows = append(rows, []string{"Next Step", "r7 ic jobs get " + jobID})
				}
			} else {
				rows = append(rows, []string{"Job ID", "Not returned in response"})
			}
			if job, ok := nested(resp, "data", "job").(map[string]any); ok {
				for _, field := range []string{"status", "name", "duration", "startedAt", "endedAt"} {
					if v := str(job, field); v != "" {
						rows = append(rows, []string{capitalize(field), v})
					}
				}
			}
			return p.Table("Workflow Execution", []string{"Field", "Value"}, rows)
		})
	},
}

func workflowToggleCmd(use, short string, activate bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <workflow-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
				var resp map[string]any
				var err error
				if activate {
					resp, err = client.ActivateWorkflow(ctx, args[0])
				} else {
					resp, err = client.DeactivateWorkflow(ctx, args[0])
				}
				if err != nil {
					return err
				}
				if p.JSON() {
					return p.WriteJSON(resp)
				}
				state := "deactivated"
				if activate {
					state = "activated"
				}
				fmt.Fprintf(p.Out, "Workflow %s %s\n", args[0], state)
				return nil
			})
		},
	}
}

var icWorkflowsExportCmd = &cobra.Command{
	Use:   "export <workflow-id>",
	Short: "Export a workflow definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		excludeConfig, _ := cmd.Flags().GetBool("exclude-config-details")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ExportWorkflow(ctx, args[0], excludeConfig)
			if err != nil {
				return err
			}
			return p.WriteJSON(resp)
		})
	},
}

var icJobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		status, _ := cmd.Flags().GetString("status")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ListJobs(ctx, limit, offset, status)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			jobs := icItems(resp, "jobs")
			rows := make([][]string, 0, len(jobs))
			for _, wrap := range jobs {
				job := wrap
				if inner, ok := wrap["job"].(map[string]any); ok {
					job = inner
				}
				id := str(job, "jobId")
				if id == "" {
					id = str(job, "id")
				}
				rows = append(rows, []string{
					id,
					str(job, "name"),
					str(job, "status"),
					str(job, "duration"),
				})
			}
			return p.Table("InsightConnect Jobs", []string{"Job ID", "Name", "Status", "Duration (s)"}, rows)
		})
	},
}

var icJobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Get job details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		timeout, _ := cmd.Flags().GetInt("timeout")
		interval, _ := cmd.Flags().GetInt("interval")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			var resp map[string]any
			var err error
			if wait {
				resp, err = client.WaitForJob(ctx, args[0], time.Duration(timeout)*time.Second, time.Duration(interval)*time.Second)
			} else {
				resp, err = client.GetJob(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			job := resp
			if inner, ok := nested(resp, "data", "job").(map[string]any); ok {
				job = inner
			}
			rows := [][]string{
				{"Job ID", orNA(str(job, "jobId"))},
				{"Name", orNA(str(job, "name"))},
				{"Status", orNA(str(job, "status"))},
				{"Duration (s)", orNA(str(job, "duration"))},
				{"Started", orNA(str(job, "startedAt"))},
				{"Ended", orNA(str(job, "endedAt"))},
			}
			return p.Table("Job: "+orNA(str(job, "name")), []string{"Field", "Value"}, rows)
		})
	},
}

var icGAListCmd = &cobra.Command{
	Use:   "list",
	Short: "List global artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		name, _ := cmd.Flags().GetString("name")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ListGlobalArtifacts(ctx, limit, offset, name, tags)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			artifacts := icItems(resp, "globalArtifacts")
			rows := make([][]string, 0, len(artifacts))
			for _, ga := range artifacts {
				var tagNames []string
				if raw, ok := ga["tags"].([]any); ok {
					for _, t := range raw {
						tagNames = append(tagNames, format.Cell(t))
					}
				}
				rows = append(rows, []string{
					str(ga, "id"),
					str(ga, "name"),
					strings.Join(tagNames, ", "),
					str(ga, "entitiesCount"),
				})
			}
			return p.Table("Global Artifacts", []string{"ID", "Name", "Tags", "Entities"}, rows)
		})
	},
}

var icGAGetCmd = &cobra.Command{
	Use:   "get <artifact-id>",
	Short: "Get a global artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.GetGlobalArtifact(ctx, args[0])
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			ga := resp
			if inner, ok := nested(resp, "data", "globalArtifact").(map[string]any); ok {
				ga = inner
			}
			rows := [][]string{
				{"ID", orNA(str(ga, "id"))},
				{"Name", orNA(str(ga, "name"))},
				{"Description", orNA(str(ga, "description"))},
				{"Entities", orNA(str(ga, "entitiesCount"))},
				{"Created", orNA(str(ga, "createdAt"))},
				{"Updated", orNA(str(ga, "updatedAt"))},
			}
			return p.Table("Global Artifact: "+orNA(str(ga, "name")), []string{"Field", "Value"}, rows)
		})
	},
}

var icGACreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a global artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.CreateGlobalArtifact(ctx, name, description, nil, tags)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			id := ""
			if ga, ok := nested(resp, "data", "globalArtifact").(map[string]any); ok {
				id = str(ga, "id")
			}
			fmt.Fprintf(p.Out, "Created global artifact %s (%s)\n", name, orNA(id))
			return nil
		})
	},
}

var icGADeleteCmd = &cobra.Command{
	Use:   "delete <artifact-id>",
	Short: "Delete a global artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			if err := client.DeleteGlobalArtifact(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(p.Out, "Deleted global artifact %s\n", args[0])
			return nil
		})
	},
}

var icGAEntitiesListCmd = &cobra.Command{
	Use:   "list <artifact-id>",
	Short: "List entries in a global artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.ListGlobalArtifactEntities(ctx, args[0], limit, offset)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			entities := icItems(resp, "entities")
			rows := make([][]string, 0, len(entities))
			for _, e := range entities {
				rows = append(rows, []string{
					str(e, "id"),
					format.Truncate(str(e, "data"), 60),
					str(e, "updatedAt"),
				})
			}
			return p.Table("Global Artifact Entities", []string{"ID", "Data", "Updated At"}, rows)
		})
	},
}

var icGAEntitiesAddCmd = &cobra.Command{
	Use:   "add <artifact-id>",
	Short: "Add an entry to a global artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetString("data")
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			resp, err := client.AddGlobalArtifactEntity(ctx, args[0], data)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.WriteJSON(resp)
			}
			fmt.Fprintf(p.Out, "Added entity to artifact %s\n", args[0])
			return nil
		})
	},
}

var icGAEntitiesDeleteCmd = &cobra.Command{
	Use:   "delete <artifact-id> <entity-id>",
	Short: "Delete an entry from a global artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, cfg *config.Config, client *insight.Client, p *format.Printer) error {
			if err := client.DeleteGlobalArtifactEntity(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(p.Out, "Deleted entity %s from artifact %s\n", args[1], args[0])
			return nil
		})
	},
}

func init() {
	icWorkflowsListCmd.Flags().Int("limit", 30, "Number of items (max 30)")
	icWorkflowsListCmd.Flags().Int("offset", 0, "Offset for pagination")

	icWorkflowsRunCmd.Flags().StringSlice("param", nil, "key=value parameter to pass, repeatable")
	icWorkflowsRunCmd.Flags().Bool("wait", false, "Wait for the resulting job to complete")
	icWorkflowsRunCmd.Flags().Int("timeout", 600, "Max seconds to wait when --wait is used")
	icWorkflowsRunCmd.Flags().Int("interval", 3, "Polling interval in seconds")

	icWorkflowsExportCmd.Flags().Bool("exclude-config-details", false, "Exclude connections, params and notifications from export")

	icJobsListCmd.Flags().Int("limit", 30, "Number of items (max 30)")
	icJobsListCmd.Flags().Int("offset", 0, "Offset for pagination")
	icJobsListCmd.Flags().String("status", "", "Filter by status (queued, running, succeeded, failed, canceled)")

	icJobsGetCmd.Flags().Bool("wait", false, "Wait for job to reach a terminal state")
	icJobsGetCmd.Flags().Int("timeout", 600, "Max seconds to wait when --wait is used")
	icJobsGetCmd.Flags().Int("interval", 3, "Polling interval in seconds")

	icGAListCmd.Flags().Int("limit", 30, "Number of items (max 30)")
	icGAListCmd.Flags().Int("offset", 0, "Offset for pagination")
	icGAListCmd.Flags().String("name", "", "Filter by name")
	icGAListCmd.Flags().StringSlice("tag", nil, "Filter by tag, repeatable")

	icGACreateCmd.Flags().String("name", "", "Artifact name")
	icGACreateCmd.Flags().String("description", "", "Description")
	icGACreateCmd.Flags().StringSlice("tag", nil, "Tags, repeatable")
	_ = icGACreateCmd.MarkFlagRequired("name")

	icGAEntitiesListCmd.Flags().Int("limit", 30, "Number of items (max 30)")
	icGAEntitiesListCmd.Flags().Int("offset", 0, "Offset for pagination")
	icGAEntitiesAddCmd.Flags().String("data", "", "Entity data")
	_ = icGAEntitiesAddCmd.MarkFlagRequired("data")

	icWorkflowsCmd.AddCommand(
		icWorkflowsListCmd, icWorkflowsGetCmd, icWorkflowsRunCmd,
		workflowToggleCmd("on", "Activate a workflow", true),
		workflowToggleCmd("off", "Deactivate a workflow", false),
		icWorkflowsExportCmd,
	)
	icJobsCmd.AddCommand(icJobsListCmd, icJobsGetCmd)
	icGAEntitiesCmd.AddCommand(icGAEntitiesListCmd, icGAEntitiesAddCmd, icGAEntitiesDeleteCmd)
	icGACmd.AddCommand(icGAListCmd, icGAGetCmd, icGACreateCmd, icGADeleteCmd, icGAEntitiesCmd)
	icCmd.AddCommand(icWorkflowsCmd, icJobsCmd, icGACmd)
	rootCmd.AddCommand(icCmd)
}
